package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"despesify/internal/app"
	"despesify/internal/atqr"
	"despesify/internal/domain"
	"despesify/internal/ocr"
	"despesify/internal/port"
	"despesify/internal/service"
)

func newQRCommand(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr",
		Short: "Parse, decode and render AT invoice QR codes",
	}

	parse := &cobra.Command{
		Use:   "parse <payload|->",
		Short: "Parse a decoded QR payload into an expense draft",
		Example: `  despesify qr parse 'A:123456789*B:999999990*C:PT*D:FT*E:N*F:20240315*G:FT A/123*H:0*I1:PT*I2:10.00*I3:0.60*I4:RED'
  zbarimg --raw -q invoice.png | despesify qr parse - --enrich`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := args[0]
			if payload == "-" {
				raw, err := readInput(cmd, "-")
				if err != nil {
					return err
				}
				payload = string(raw)
			}

			rec, err := atqr.Parse(payload)
			if err != nil {
				return err
			}

			enrich, _ := cmd.Flags().GetBool("enrich")
			svc, closeFn, err := st.qrService(cmd.Context(), enrich, nil)
			if err != nil {
				return err
			}
			defer closeFn()

			draft, warnings := svc.BuildQRDraft(cmd.Context(), rec)
			return writeJSON(cmd.OutOrStdout(), service.QRExtraction{
				Payload:  strings.TrimSpace(payload),
				Record:   rec,
				Draft:    draft,
				Warnings: warnings,
			})
		},
	}
	parse.Flags().Bool("enrich", false, "Resolve the issuer NIF through the cache and lookup providers")

	decode := &cobra.Command{
		Use:   "decode <image>",
		Short: "Decode the QR code in an invoice image with zbar and parse it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeFile, err := openUpload(args[0])
			if err != nil {
				return err
			}
			defer closeFile()

			enrich, _ := cmd.Flags().GetBool("enrich")
			svc, closeFn, err := st.qrService(cmd.Context(), enrich, ocr.NewZbarDecoder(&st.cfg.QR, nil))
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := svc.ExtractFromQRImage(cmd.Context(), in)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	decode.Flags().Bool("enrich", false, "Resolve the issuer NIF through the cache and lookup providers")

	render := &cobra.Command{
		Use:   "render <payload>",
		Short: "Validate a QR payload and render it as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := atqr.Parse(args[0]); err != nil {
				return err
			}
			size, _ := cmd.Flags().GetInt("size")
			png, err := atqr.RenderPNG(strings.TrimSpace(args[0]), size)
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			if err := os.WriteFile(out, png, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(png))
			return nil
		},
	}
	render.Flags().StringP("output", "o", "", "Output PNG path (default: stdout)")
	render.Flags().Int("size", 256, "Image size in pixels")

	cmd.AddCommand(parse, decode, render)
	return cmd
}

// qrService builds an extraction service. With enrich it is backed by the
// full application graph, which needs the cache database.
func (st *state) qrService(ctx context.Context, enrich bool, decoder port.QRDecoder) (service.ExtractionService, func(), error) {
	cfg := service.ExtractionConfig{
		AmountPolicy:     domain.AmountPolicy(st.cfg.QR.AmountPolicy),
		MaxFileSizeBytes: st.cfg.OCR.MaxFileSizeBytes(),
	}
	if !enrich {
		return service.NewExtractionService(nil, nil, decoder, cfg), func() {}, nil
	}

	a, err := app.New(ctx, st.cfg)
	if err != nil {
		return nil, nil, err
	}
	return service.NewExtractionService(a.NIF, nil, decoder, cfg), func() { _ = a.Close() }, nil
}
