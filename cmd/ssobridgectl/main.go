package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("SSOBRIDGE_ADMIN_URL", "http://localhost:8080")
		apiKey  = envOr("SSOBRIDGE_ADMIN_KEY", "")
		out     = envOr("SSOBRIDGE_OUT", "text")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "ssobridgectl",
		Short: "CLI admin para ssobridge (vía /admin)",
	}

	root.PersistentFlags().StringVar(&baseURL, "admin-api-url", baseURL, "URL base del Admin API (env SSOBRIDGE_ADMIN_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key del Admin API (env SSOBRIDGE_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	cl := &client{HTTP: &http.Client{Timeout: timeout}}

	// Los flags se parsean recién en Execute; el cliente toma los valores
	// finales acá.
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if apiKey == "" {
			return fmt.Errorf("falta API key (flag --admin-api-key o env SSOBRIDGE_ADMIN_KEY)")
		}
		cl.BaseURL = baseURL
		cl.APIKey = apiKey
		cl.OutFormat = out
		return nil
	}

	// grupo settings
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Lectura y escritura de los settings SSO",
	}

	settingsGetCmd := &cobra.Command{
		Use:   "get",
		Short: "Mostrar los settings actuales (secret redactado)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/admin/sso/settings", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var (
		setClientID     string
		setClientSecret string
		setLogoURL      string
		setDisableReg   string
		setNeedVerify   string
	)
	settingsSetCmd := &cobra.Command{
		Use:   "set",
		Short: "Actualizar los settings SSO",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Partimos de los settings actuales para no pisar campos no
			// pasados por flag.
			status, body, err := cl.do("GET", "/admin/sso/settings", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			var current map[string]any
			if err := json.Unmarshal(body, &current); err != nil {
				return fmt.Errorf("settings actuales ilegibles: %w", err)
			}

			if cmd.Flags().Changed("client-id") {
				current["id"] = setClientID
			}
			if cmd.Flags().Changed("client-secret") {
				current["secret"] = setClientSecret
			}
			if cmd.Flags().Changed("logo-url") {
				current["ssoLogo"] = setLogoURL
			}
			if cmd.Flags().Changed("disable-registration") {
				current["disableRegistration"] = setDisableReg
			}
			if cmd.Flags().Changed("need-to-verify-email") {
				current["needToVerifyEmail"] = setNeedVerify
			}

			b, _ := json.Marshal(current)
			status, body, err = cl.do("PUT", "/admin/sso/settings", b)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("set fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, []byte(`{"ok":true}`))
			return nil
		},
	}
	settingsSetCmd.Flags().StringVar(&setClientID, "client-id", "", "OAuth client id")
	settingsSetCmd.Flags().StringVar(&setClientSecret, "client-secret", "", "OAuth client secret")
	settingsSetCmd.Flags().StringVar(&setLogoURL, "logo-url", "", "URL del logo en el botón de login")
	settingsSetCmd.Flags().StringVar(&setDisableReg, "disable-registration", "", `bloquear registro de cuentas nuevas: "on"|"off"`)
	settingsSetCmd.Flags().StringVar(&setNeedVerify, "need-to-verify-email", "", `exigir verificación local de email: "on"|"off"`)

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)

	// grupo associations
	assocCmd := &cobra.Command{
		Use:   "associations",
		Short: "Inspección y desvinculación de cuentas",
	}

	assocGetCmd := &cobra.Command{
		Use:   "get <uid>",
		Short: "Mostrar el estado de vinculación de una cuenta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/admin/sso/associations/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get fallo: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	assocUnlinkCmd := &cobra.Command{
		Use:   "unlink <uid>",
		Short: "Desvincular la identidad externa de una cuenta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("DELETE", "/admin/sso/associations/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("unlink fallo: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, []byte(`{"ok":true}`))
			return nil
		},
	}

	assocCmd.AddCommand(assocGetCmd, assocUnlinkCmd)

	root.AddCommand(settingsCmd, assocCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
