package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/collections_backend/config"
	"bitbucket.org/mmdatafocus/collections_backend/models"
	"bitbucket.org/mmdatafocus/collections_backend/reports"
	"bitbucket.org/mmdatafocus/collections_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	module := flag.String("module", "", "Required: gestiones | sms | pagos")
	file := flag.String("file", "", "Required: path to the .xlsx / .txt / .csv file")
	commit := flag.Bool("commit", false, "Load the new rows (default: preview only)")
	errorsOut := flag.String("errors-out", "", "Write error rows to this path (.csv or .xlsx)")
	flag.Parse()

	if strings.TrimSpace(*module) == "" || strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--module and --file are required")
		os.Exit(1)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.SetLogLevel(settings.LogLevel)
	logger := config.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *file, err)
		os.Exit(1)
	}

	db, err := config.OpenDatabaseWithRetry(settings.DB, 5)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer config.CloseDatabase(db)

	rdb, locker, err := config.ConnectRedis(ctx, settings.RedisAddress, 3)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "redis"}).Warn("load lock disabled: " + err.Error())
	}
	if rdb != nil {
		defer rdb.Close()
	}

	uploader := &workflow.Uploader{
		Store:              models.NewStore(db),
		Locker:             locker,
		LockTTL:            time.Duration(settings.LoadLockTTLSeconds) * time.Second,
		ReconcileChunkSize: settings.ReconcileChunkSize,
		LoadChunkSize:      settings.LoadChunkSize,
		Logger:             logger,
	}
	if *commit {
		if publisher, err := config.NewPublisher(ctx, settings.PubSubProjectID, settings.IngestTopic); err != nil {
			logger.WithFields(logrus.Fields{"field": "pubsub"}).Warn("load notifications disabled: " + err.Error())
		} else if publisher != nil {
			uploader.Notifier = publisher
			defer publisher.Close()
		}
		if archive, err := config.NewArchive(ctx, settings.GCSBucket); err != nil {
			logger.WithFields(logrus.Fields{"field": "gcs"}).Warn("source file archive disabled: " + err.Error())
		} else if archive != nil {
			uploader.Archive = archive
			defer archive.Close()
		}
	}

	res, err := uploader.Run(ctx, workflow.UploadRequest{
		Module:   *module,
		FileName: filepath.Base(*file),
		Data:     data,
		Commit:   *commit,
		Progress: func(fraction float64, message string) {
			fmt.Fprintf(os.Stderr, "[%3.0f%%] %s\n", fraction*100, message)
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if workflow.IsRollback(err) {
			fmt.Fprintln(os.Stderr, "no rows were loaded")
		}
		os.Exit(2)
	}

	if *errorsOut != "" && len(res.ErrorRows) > 0 {
		if err := writeErrors(*errorsOut, res); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *errorsOut, err)
			os.Exit(1)
		}
	}

	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))
}

func writeErrors(path string, res *workflow.UploadResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return reports.WriteErrorWorkbook(f, res.Strategy, res.ErrorRows)
	}
	return reports.WriteErrorCSV(f, res.Strategy, res.ErrorRows)
}
