package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/shamseergtct/gtct-analytics/config"
	"github.com/shamseergtct/gtct-analytics/models/reports"
	"github.com/shamseergtct/gtct-analytics/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type reportFlags struct {
	clientId  string
	from      string
	to        string
	xlsxPath  string
	csvPath   string
	upload    bool
	partyId   int
	partyName string
}

// exportFile is one rendering of a report.
type exportFile struct {
	localPath   string
	ext         string
	contentType string
	write       func(io.Writer) error
}

func (f *reportFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.clientId, "client", "", "client (shop) id")
	cmd.Flags().StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (defaults to --from)")
	cmd.Flags().StringVar(&f.xlsxPath, "xlsx", "", "write the report as XLSX to this path")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "write the report as CSV to this path")
	cmd.Flags().BoolVar(&f.upload, "upload", false, "upload the exports to the storage bucket under STORAGE_EXPORT_PREFIX")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("from")
}

func (f *reportFlags) validate() error {
	f.clientId = strings.TrimSpace(f.clientId)
	if f.clientId == "" {
		return errors.New("--client is required")
	}
	if f.to == "" {
		f.to = f.from
	}
	return reports.ValidateRange(f.from, f.to)
}

func (f *reportFlags) validateParty() error {
	if err := f.validate(); err != nil {
		return err
	}
	if f.partyId <= 0 && strings.TrimSpace(f.partyName) == "" {
		return errors.New("one of --party-id or --party-name is required")
	}
	return nil
}

func (f *reportFlags) context() context.Context {
	ctx := utils.SetClientIdInContext(context.Background(), f.clientId)
	return utils.SetCorrelationIdInContext(ctx, fmt.Sprintf("gtct-%d", time.Now().UnixNano()))
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render client reports",
	}
	cmd.AddCommand(newDailyReportCmd(), newPartyReportCmd())
	return cmd
}

func newDailyReportCmd() *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Daily financial position report for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			connect()
			ctx := flags.context()
			result, err := reports.NewService(nil).GetDailyReport(ctx, flags.clientId, flags.from, flags.to)
			if err != nil {
				return err
			}
			return writeExports(ctx, cmd.OutOrStdout(), flags, result.FileName(), result, []exportFile{
				{localPath: flags.csvPath, ext: ".csv", contentType: mimeCSV, write: func(w io.Writer) error { return reports.DailyReportCSV(w, result) }},
				{localPath: flags.xlsxPath, ext: ".xlsx", contentType: mimeXLSX, write: func(w io.Writer) error { return reports.DailyReportXLSX(w, result) }},
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

func newPartyReportCmd() *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "party",
		Short: "Ledger of one party for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validateParty(); err != nil {
				return err
			}
			connect()
			ctx := flags.context()
			result, err := reports.NewService(nil).GetPartyLedgerReport(ctx, flags.clientId, flags.partyId, flags.partyName, flags.from, flags.to)
			if err != nil {
				return err
			}
			return writeExports(ctx, cmd.OutOrStdout(), flags, result.FileName(), result, []exportFile{
				{localPath: flags.csvPath, ext: ".csv", contentType: mimeCSV, write: func(w io.Writer) error { return reports.PartyLedgerCSV(w, result) }},
				{localPath: flags.xlsxPath, ext: ".xlsx", contentType: mimeXLSX, write: func(w io.Writer) error { return reports.PartyLedgerXLSX(w, result) }},
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().IntVar(&flags.partyId, "party-id", 0, "party id")
	cmd.Flags().StringVar(&flags.partyName, "party-name", "", "party name, matched case-insensitively")
	return cmd
}

// writeExports writes each requested rendering locally and, with --upload, to
// the export bucket. With neither, the report is printed as JSON.
func writeExports(ctx context.Context, stdout io.Writer, flags *reportFlags, baseName string, result any, files []exportFile) error {
	wrote := false
	for _, f := range files {
		if f.localPath == "" && !flags.upload {
			continue
		}
		var buf bytes.Buffer
		if err := f.write(&buf); err != nil {
			return fmt.Errorf("render %s: %w", f.ext, err)
		}
		if f.localPath != "" {
			if err := os.WriteFile(f.localPath, buf.Bytes(), 0o644); err != nil {
				return err
			}
			Log.WithFields(logrus.Fields{"path": f.localPath, "bytes": buf.Len()}).Info("report written")
		}
		if flags.upload {
			objectKey := exportObjectKey(config.GetSettings().Storage.ExportPrefix, flags.clientId, baseName+f.ext)
			if err := utils.UploadBytesToGCS(ctx, objectKey, buf.Bytes(), f.contentType); err != nil {
				return fmt.Errorf("upload %s: %w", objectKey, err)
			}
			Log.WithFields(logrus.Fields{"object_key": objectKey, "url": utils.BuildObjectAccessURL(objectKey)}).Info("report uploaded")
		}
		wrote = true
	}
	if wrote {
		return nil
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func exportObjectKey(prefix string, clientId string, fileName string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "exports"
	}
	return path.Join(prefix, clientId, fileName)
}
