package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheetpilot/sheetpilot/internal/config"
	"github.com/sheetpilot/sheetpilot/pkg/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage persisted sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the conversation for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete sessions older than the retention age",
	RunE:  runSessionsSweep,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsSweepCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openStore() (session.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return buildStore(cfg)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(ids) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	for _, id := range ids {
		info, err := store.Info(cmd.Context(), id)
		if err != nil {
			fmt.Printf("%s\n", id)
			continue
		}
		modified := time.UnixMilli(info.LastModified).Format(time.RFC3339)
		fmt.Printf("%s  messages=%d  size=%d  modified=%s\n", id, info.MessageCount, info.Size, modified)
	}

	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := args[0]
	if _, err := store.Info(cmd.Context(), sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}

	messages := store.Load(cmd.Context(), sessionID)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(messages)
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := args[0]
	if err := store.Delete(cmd.Context(), sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}

	fmt.Printf("Deleted session %s\n", sessionID)
	return nil
}

func runSessionsSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fileStore, ok := store.(*session.FileStore)
	if !ok {
		return fmt.Errorf("sweep only applies to the file driver; redis sessions expire via TTL")
	}

	maxAge := session.DefaultRetentionAge
	if cfg.Sessions.Retention.MaxAge > 0 {
		maxAge = time.Duration(cfg.Sessions.Retention.MaxAge) * 24 * time.Hour
	}

	sweeper := session.NewSweeper(fileStore, cfg.Sessions.Retention.Schedule, maxAge)
	removed, err := sweeper.SweepNow(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Removed %d expired sessions\n", removed)
	return nil
}
