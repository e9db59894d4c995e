package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/kingrain94/table-qr-api/internal/domain"
	"github.com/kingrain94/table-qr-api/internal/qrtoken"
	"github.com/kingrain94/table-qr-api/internal/render"
)

type staffClaims struct {
	UserID   string   `json:"user_id"`
	Roles    []string `json:"roles"`
	TenantID string   `json:"tenant_id"`
	jwt.RegisteredClaims
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "qrctl",
		Short:        "Sign, inspect and render table QR tokens",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("secret", "", "QR signing secret (defaults to QR_SECRET_KEY)")

	root.AddCommand(newSignCommand(), newVerifyCommand(), newRenderCommand(), newStaffTokenCommand())
	return root
}

func codecFrom(cmd *cobra.Command) (*qrtoken.Codec, error) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		secret = os.Getenv("QR_SECRET_KEY")
	}
	return qrtoken.NewCodec(secret)
}

func newSignCommand() *cobra.Command {
	var (
		tenantID string
		tableID  string
		version  int64
		baseURL  string
	)
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a token for a table version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" || tableID == "" {
				return fmt.Errorf("--tenant and --table are required")
			}
			codec, err := codecFrom(cmd)
			if err != nil {
				return err
			}

			token, err := codec.Sign(qrtoken.Payload{
				TableID:      tableID,
				TenantID:     tenantID,
				TokenVersion: version,
				IssuedAt:     time.Now().UnixMilli(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			if baseURL != "" {
				fmt.Fprintln(out, strings.TrimRight(baseURL, "/")+"/qr/"+token)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID")
	cmd.Flags().StringVar(&tableID, "table", "", "Table ID")
	cmd.Flags().Int64Var(&version, "version", 0, "Token version to embed")
	cmd.Flags().StringVar(&baseURL, "base-url", os.Getenv("QR_BASE_URL"), "Also print the scan URL under this base")
	return cmd
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Check a token's signature and print its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := codecFrom(cmd)
			if err != nil {
				return err
			}

			token := args[0]
			if i := strings.LastIndex(token, "/qr/"); i >= 0 {
				token = token[i+len("/qr/"):]
			}
			payload, err := codec.Verify(token)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				qrtoken.Payload
				IssuedAtUTC time.Time `json:"issuedAtUtc"`
			}{payload, payload.IssuedAtTime().UTC()})
		},
	}
}

func newRenderCommand() *cobra.Command {
	var (
		format string
		output string
		label  string
		width  int
	)
	cmd := &cobra.Command{
		Use:   "render <url>",
		Short: "Render a scan URL as png, svg or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codeFormat := domain.CodeFormat(strings.ToLower(format))
			if !codeFormat.Valid() {
				return fmt.Errorf("unsupported format %q", format)
			}
			if output == "" {
				output = "qr." + codeFormat.Extension()
			}

			pipeline := render.NewPipeline(render.Options{DownloadSize: width})
			var data []byte
			var err error
			switch codeFormat {
			case domain.CodeFormatPNG:
				data, err = pipeline.ToRaster(args[0], render.SizeDownload)
			case domain.CodeFormatSVG:
				var svg string
				svg, err = pipeline.ToVector(args[0])
				data = []byte(svg)
			case domain.CodeFormatPDF:
				data, err = pipeline.ToDocument(args[0], label)
			}
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "png", "Artifact format: png, svg or pdf")
	cmd.Flags().StringVarP(&output, "out", "o", "", "Output file (default qr.<format>)")
	cmd.Flags().StringVar(&label, "label", "", "Printed table label for pdf output")
	cmd.Flags().IntVar(&width, "width", 1000, "PNG width in pixels")
	return cmd
}

func newStaffTokenCommand() *cobra.Command {
	var (
		userID   string
		tenantID string
		roles    string
		expHours int
	)
	cmd := &cobra.Command{
		Use:   "staff-token",
		Short: "Mint a staff bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			if tenantID == "" {
				return fmt.Errorf("--tenant is required")
			}
			secret := os.Getenv("JWT_SECRET_KEY")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET_KEY is not set")
			}

			// Parse roles
			rolesList := []string{}
			if roles != "" {
				rolesList = strings.Split(roles, ",")
			}

			claims := &staffClaims{
				UserID:   userID,
				Roles:    rolesList,
				TenantID: tenantID,
				RegisteredClaims: jwt.RegisteredClaims{
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expHours) * time.Hour)),
					IssuedAt:  jwt.NewNumericDate(time.Now()),
				},
			}

			tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("error signing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tokenString)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID for the token")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID for the token")
	cmd.Flags().StringVar(&roles, "roles", "", "Comma-separated list of roles")
	cmd.Flags().IntVar(&expHours, "exp", 24, "Token expiration in hours")
	return cmd
}
