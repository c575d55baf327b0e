package workflow

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/collections_backend/config"
	"bitbucket.org/mmdatafocus/collections_backend/ingest"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// fakeStore keeps committed rows in memory, keyed by table.
type fakeStore struct {
	columns     map[string][]string
	ids         map[string]bool
	tables      map[string][]map[string]any
	failAppend  int // 1-based append call that fails, 0 = never
	appendCalls int
	history     map[ingest.MatchKey][]ingest.HistoricalEvent
}

func newFakeStore() *fakeStore {
	f := &fakeStore{
		columns: map[string][]string{},
		ids:     map[string]bool{},
		tables:  map[string][]map[string]any{},
		history: map[ingest.MatchKey][]ingest.HistoricalEvent{},
	}
	for _, kind := range []ingest.Kind{ingest.KindGestiones, ingest.KindSMS, ingest.KindPagosAcuerdo} {
		s, _ := ingest.StrategyFor(kind)
		f.columns[s.Table] = append([]string{}, s.Columns...)
	}
	return f
}

func (f *fakeStore) Columns(_ context.Context, table string) ([]string, error) {
	return f.columns[table], nil
}

func (f *fakeStore) ExistingIDs(_ context.Context, _, _ string, ids []string) ([]string, error) {
	var found []string
	for _, id := range ids {
		if f.ids[id] {
			found = append(found, id)
		}
	}
	return found, nil
}

type fakeTx struct {
	f       *fakeStore
	pending map[string][]map[string]any
}

func (tx *fakeTx) Append(_ context.Context, table string, rows []map[string]any) error {
	tx.f.appendCalls++
	if tx.f.failAppend == tx.f.appendCalls {
		return errors.New("duplicate key value violates unique constraint")
	}
	tx.pending[table] = append(tx.pending[table], rows...)
	return nil
}

func (f *fakeStore) WithinTransaction(_ context.Context, fn func(ingest.Appender) error) error {
	tx := &fakeTx{f: f, pending: map[string][]map[string]any{}}
	if err := fn(tx); err != nil {
		return err
	}
	for table, rows := range tx.pending {
		f.tables[table] = append(f.tables[table], rows...)
		for _, r := range rows {
			f.ids[r[ingest.IDColumn].(string)] = true
		}
	}
	return nil
}

func (f *fakeStore) EventsByKey(_ context.Context, key ingest.MatchKey, values []string) ([]ingest.HistoricalEvent, error) {
	want := map[string]bool{}
	for _, v := range values {
		want[v] = true
	}
	var out []ingest.HistoricalEvent
	for _, ev := range f.history[key] {
		if want[ev.Key] {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeArchive struct {
	objects map[string][]byte
}

func (a *fakeArchive) Put(_ context.Context, objectName, _ string, data []byte) (string, error) {
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[objectName] = data
	return "gs://test-bucket/" + objectName, nil
}

type fakeNotifier struct {
	messages []config.LoadCompletedMessage
}

func (n *fakeNotifier) PublishLoadCompleted(_ context.Context, msg config.LoadCompletedMessage) (string, error) {
	n.messages = append(n.messages, msg)
	return "msg-1", nil
}

// workbook builds an xlsx file with one sheet per entry of sheets, in order.
func workbook(t *testing.T, names []string, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, name := range names {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("SetSheetName: %v", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		for r, row := range sheets[name] {
			values := make([]any, len(row))
			for c, v := range row {
				values[c] = v
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// latin1TSV encodes rows as a tab separated ISO-8859-1 extract.
func latin1TSV(t *testing.T, rows [][]string) []byte {
	t.Helper()
	var text bytes.Buffer
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				text.WriteByte('\t')
			}
			text.WriteString(v)
		}
		text.WriteString("\r\n")
	}
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes(text.Bytes())
	if err != nil {
		t.Fatalf("encode latin1: %v", err)
	}
	return encoded
}
