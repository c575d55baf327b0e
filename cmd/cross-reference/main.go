package main

import (
	"context"
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
)

func main() {
	file := flag.String("file", "", "Required: payments file with codcliente / nitcliente columns")
	out := flag.String("out", "", "Output workbook (default reporte_cruce_<date>.xlsx)")
	flag.Parse()

	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}
	if *out == "" {
		*out = reports.CrossReferenceName(time.Now())
	}

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	config.SetLogLevel(settings.LogLevel)

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

	x := &workflow.CrossReferencer{History: models.NewStore(db), ChunkSize: settings.ReconcileChunkSize}
	result, err := x.Run(ctx, workflow.CrossReferenceRequest{FileName: filepath.Base(*file), Data: data})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := reports.WriteCrossReference(f, result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	m := result.Metrics
	fmt.Printf("Registros procesados: %d\n", m.Total)
	fmt.Printf("Coincidencias por codcliente: %d\n", m.ByCaseCode)
	fmt.Printf("Coincidencias por nitcliente: %d\n", m.ByDocument)
	fmt.Printf("Sin coincidencias: %d\n", m.NoMatch)
	fmt.Printf("Reporte: %s\n", *out)
}
