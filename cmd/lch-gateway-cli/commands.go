package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/seantiz/lchgate/internal/client"
)

var rootCmd = &cobra.Command{
	Use:           "lch-gateway-cli",
	Short:         "Submit code to a local lch-host gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run code from a file, or stdin when no file is given, and print its result",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

var callCmd = &cobra.Command{
	Use:   "call <message>",
	Short: "Queue a raw message without waiting for a result",
	Args:  cobra.ExactArgs(1),
	RunE:  runCall,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the gateway is up",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("host", "127.0.0.1", "gateway host")
	flags.Int("port", 9090, "gateway port")
	flags.Duration("timeout", client.DefaultPollDeadline, "how long to wait for a result")
	flags.Duration("poll-interval", client.DefaultPollInterval, "pause between result polls")
	flags.Bool("verbose", false, "log protocol details to stderr")

	runCmd.Flags().Bool("watch", false, "run the file again every time it is saved")

	rootCmd.AddCommand(runCmd, callCmd, healthCmd)
}

func newClient(cmd *cobra.Command) (*client.Client, error) {
	flags := cmd.Flags()
	host, err := flags.GetString("host")
	if err != nil {
		return nil, err
	}
	port, err := flags.GetInt("port")
	if err != nil {
		return nil, err
	}
	timeout, err := flags.GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	interval, err := flags.GetDuration("poll-interval")
	if err != nil {
		return nil, err
	}
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if timeout <= 0 || interval <= 0 {
		return nil, errors.New("--timeout and --poll-interval must be positive")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(port))
	return client.New(baseURL,
		client.WithPollDeadline(timeout),
		client.WithPollInterval(interval),
		client.WithLogger(logger),
	), nil
}

func runRun(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	if watch {
		if len(args) != 1 {
			return errors.New("--watch needs a file argument")
		}
		return watchAndRun(cmd, c, args[0])
	}

	code, err := readCode(cmd, args)
	if err != nil {
		return err
	}
	return submitAndPrint(cmd, c, code)
}

// submitAndPrint runs code through the gateway and prints its result.
func submitAndPrint(cmd *cobra.Command, c *client.Client, code string) error {
	if err := c.Submit(cmd.Context(), code); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	result, err := c.AwaitResult(cmd.Context())
	if errors.Is(err, client.ErrTimeout) {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return fmt.Errorf("no result after %s", timeout.Round(time.Millisecond))
	}
	if err != nil {
		return fmt.Errorf("await result: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), result)
	return nil
}

func runCall(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := c.Call(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("call: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "queued")
	return nil
}

func runHealth(cmd *cobra.Command, _ []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	if err := c.Health(cmd.Context()); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}

// readCode loads the payload from the named file, or stdin.
func readCode(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", args[0], err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
