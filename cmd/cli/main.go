package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// apiClient talks to the gotransfer HTTP API.
type apiClient struct {
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	client := &apiClient{}

	rootCmd := &cobra.Command{
		Use:          "gotransfer-cli",
		Short:        "GoTransfer CLI tool",
		Long:         `A command line interface for interacting with the GoTransfer API.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&client.baseURL, "url", "http://localhost:8080", "Base URL of the GoTransfer API")
	rootCmd.PersistentFlags().DurationVar(&client.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		accountCmd(client),
		transferCmd(client),
		healthCmd(client),
	)

	return rootCmd
}

func accountCmd(client *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var (
		id      string
		balance string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(balance)
			if err != nil {
				return fmt.Errorf("invalid balance %q: %w", balance, err)
			}

			return client.do(cmd, http.MethodPost, "/api/v1/accounts", map[string]any{
				"accountId": id,
				"balance":   amount,
			})
		},
	}
	createCmd.Flags().StringVar(&id, "id", "", "Account ID")
	createCmd.Flags().StringVar(&balance, "balance", "0", "Opening balance")
	_ = createCmd.MarkFlagRequired("id")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show an account and its balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.do(cmd, http.MethodGet, "/api/v1/accounts/"+url.PathEscape(args[0]), nil)
		},
	}

	cmd.AddCommand(createCmd, getCmd)
	return cmd
}

func transferCmd(client *apiClient) *cobra.Command {
	var (
		from   string
		to     string
		amount string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer money between two accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", amount, err)
			}

			return client.do(cmd, http.MethodPost, "/api/v1/accounts/transfer", map[string]any{
				"accountFromId": from,
				"accountToId":   to,
				"amount":        value,
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source account ID")
	cmd.Flags().StringVar(&to, "to", "", "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func healthCmd(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return client.do(cmd, http.MethodGet, "/ready", nil)
		},
	}
}

// do sends the request and prints the JSON response. Non-2xx responses are
// printed too and reported as an error.
func (c *apiClient) do(cmd *cobra.Command, method, path string, payload any) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	printJSON(cmd.OutOrStdout(), data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}

// printJSON indents JSON bodies and prints anything else verbatim.
func printJSON(w io.Writer, data []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		fmt.Fprintln(w, string(bytes.TrimSpace(data)))
		return
	}
	fmt.Fprintln(w, out.String())
}
