package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"despesify/internal/extract"
	"despesify/internal/ocr"
	"despesify/internal/port"
	"despesify/internal/service"
)

func newExtractCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract amount, date, VAT, description and merchant from receipts",
	}

	text := &cobra.Command{
		Use:   "text [file|-]",
		Short: "Run the field cascades over already recognized text",
		Example: `  despesify extract text receipt.txt
  tesseract scan.png stdout | despesify extract text -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			fields := extract.FromText(string(raw), time.Now())
			return writeJSON(cmd.OutOrStdout(), fields.Response())
		},
	}

	file := &cobra.Command{
		Use:   "file <receipt.pdf|.jpg|.png>",
		Short: "Recognize a receipt with the configured OCR engine and extract its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, _ := cmd.Flags().GetDuration("timeout")
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			in, closeFile, err := openUpload(args[0])
			if err != nil {
				return err
			}
			defer closeFile()

			rec, err := ocr.NewRouterFromConfig(ctx, &st.cfg.OCR, nil)
			if err != nil {
				return err
			}
			defer func() { _ = rec.Close() }()

			svc := service.NewExtractionService(nil, rec, nil, service.ExtractionConfig{
				MaxFileSizeBytes: st.cfg.OCR.MaxFileSizeBytes(),
			})
			out, err := svc.ExtractFromFile(ctx, in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
				"ocr_data": out.Fields.Response(),
				"engine":   out.Engine,
				"pages":    out.Pages,
			})
		},
	}
	file.Flags().Duration("timeout", 2*time.Minute, "Overall processing timeout")

	cmd.AddCommand(text, file)
	return cmd
}

// openUpload sniffs a local file the way the HTTP upload path does.
func openUpload(path string) (in port.FileInput, closeFn func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return in, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return in, nil, err
	}
	in, err = service.SniffUpload(path, info.Size(), f)
	if err != nil {
		_ = f.Close()
		return in, nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, func() { _ = f.Close() }, nil
}
