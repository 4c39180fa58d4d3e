package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hunt-cli/internal/app"
	"hunt-cli/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	flagBackend string
	flagDrafts  string
	flagYes     bool

	restartProfile string
	draftsLimit    int
	exportOut      string
	historyLimit   int
)

func loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return app.Config{}, err
	}
	if v := os.Getenv("HUNT_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("HUNT_DRAFT_API_URL"); v != "" {
		cfg.DraftAPIURL = v
	}
	if flagBackend != "" {
		cfg.BackendURL = flagBackend
	}
	if flagDrafts != "" {
		cfg.DraftAPIURL = flagDrafts
	}
	return cfg, nil
}

func clients() (*app.BackendClient, *app.BackendClient, app.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, app.Config{}, err
	}
	return app.NewBackendClient(cfg.BackendURL), app.NewBackendClient(cfg.DraftAPIURL), cfg, nil
}

// confirm asks on stdin unless --yes was given. Destructive commands go
// through here; everything else doesn't.
func confirm(prompt string) bool {
	if flagYes {
		return true
	}
	fmt.Printf("%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func main() {
	root := &cobra.Command{
		Use:     "hunt",
		Short:   "hunt - control panel for the job hunter backend",
		Long:    "hunt supervises a job-search run on the hunter backend: watch its status, cancel or restart it, rewrite application drafts and export them.\n\nUse without arguments for the interactive TUI, or the subcommands for scripting.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, draftAPI, cfg, err := clients()
			if err != nil {
				return err
			}
			logger := app.NewLogger(app.DefaultLogWriter(cfg.LogPath))
			model := tui.NewMainModel(client, draftAPI, logger,
				time.Duration(cfg.PollIntervalSeconds)*time.Second)
			if history, err := app.NewHistoryStore(""); err == nil {
				model.WithHistory(history)
			}

			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	root.PersistentFlags().StringVar(&flagBackend, "backend", "", "backend base URL (overrides config)")
	root.PersistentFlags().StringVar(&flagDrafts, "draft-api", "", "draft API base URL (overrides config)")
	root.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "skip confirmation prompts")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current process status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			st, err := client.FetchProcessStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("status:      %s\n", st.Phase)
			fmt.Printf("as of:       %s\n", st.Timestamp.Format(time.RFC3339))
			fmt.Printf("running:     %v\n", st.IsRunning)
			fmt.Printf("can cancel:  %v\n", st.CanCancel)
			fmt.Printf("can restart: %v\n", st.CanRestart)
			return nil
		},
	}
	root.AddCommand(statusCmd)

	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running hunt",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			if !confirm("Cancel the running hunt?") {
				fmt.Println("aborted.")
				return nil
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := client.CancelProcess(ctx); err != nil {
				return err
			}
			fmt.Println("cancel requested.")
			return nil
		},
	}
	root.AddCommand(cancelCmd)

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Start a fresh hunt",
		Long:  "Start a fresh hunt. With --profile the saved profile's parameters are used; otherwise the backend's defaults apply.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			params := map[string]any{}
			if restartProfile != "" {
				profile, err := client.GetProfile(ctx, restartProfile)
				if err != nil {
					return err
				}
				params = profile.RestartParams()
			}
			if !confirm("Restart the hunt?") {
				fmt.Println("aborted.")
				return nil
			}
			if err := client.RestartProcess(ctx, params); err != nil {
				return err
			}
			fmt.Println("restart requested.")
			return nil
		},
	}
	restartCmd.Flags().StringVarP(&restartProfile, "profile", "p", "", "search profile ID to restart with")
	root.AddCommand(restartCmd)

	rewriteCmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Rewrite application drafts from the last search",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			if !confirm("Rewrite all drafts from the last search?") {
				fmt.Println("aborted.")
				return nil
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := client.RewriteApplications(ctx, true); err != nil {
				return err
			}
			fmt.Println("rewrite requested.")
			return nil
		},
	}
	root.AddCommand(rewriteCmd)

	draftsCmd := &cobra.Command{
		Use:   "drafts",
		Short: "List stored draft letters",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, draftAPI, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			drafts, err := draftAPI.ListDrafts(ctx, draftsLimit)
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Println("no drafts stored.")
				return nil
			}
			for _, d := range drafts {
				fmt.Printf("#%-4d %-30s %s\n", d.ID, d.Company, d.Title)
			}
			return nil
		},
	}
	draftsCmd.Flags().IntVarP(&draftsLimit, "limit", "l", 50, "maximum number of drafts to list")

	exportCmd := &cobra.Command{
		Use:   "export [id...]",
		Short: "Export drafts as PDF files",
		Long:  "Export the named drafts (or all drafts when no IDs are given) as PDF files.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, draftAPI, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid draft ID %q", arg)
				}
				ids = append(ids, id)
			}
			if len(ids) == 0 {
				drafts, err := draftAPI.ListDrafts(ctx, 0)
				if err != nil {
					return err
				}
				for _, d := range drafts {
					ids = append(ids, d.ID)
				}
			}
			if len(ids) == 0 {
				fmt.Println("nothing to export.")
				return nil
			}

			files, err := draftAPI.ExportDrafts(ctx, app.ExportRequest{IDs: ids, ExportPath: exportOut})
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println(f)
			}
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "directory to export into (backend default when empty)")
	draftsCmd.AddCommand(exportCmd)
	root.AddCommand(draftsCmd)

	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "List saved search profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			profiles, err := client.ListProfiles(ctx)
			if err != nil {
				return err
			}
			active, _ := client.ActiveProfile(ctx)
			if len(profiles) == 0 {
				fmt.Println("no profiles saved. Run the TUI and press p to create one.")
				return nil
			}
			for _, p := range profiles {
				marker := " "
				if p.ID == active.ID {
					marker = "*"
				}
				fmt.Printf("%s %-12s %-24s %s\n", marker, p.ID, p.Name, strings.Join(p.Keywords, ", "))
			}
			return nil
		},
	}

	useCmd := &cobra.Command{
		Use:   "use <id>",
		Short: "Mark a profile as the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := client.SetActiveProfile(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("profile %s is now active.\n", args[0])
			return nil
		},
	}
	profilesCmd.AddCommand(useCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			if !confirm(fmt.Sprintf("Delete profile %s?", args[0])) {
				fmt.Println("aborted.")
				return nil
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := client.DeleteProfile(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("deleted.")
			return nil
		},
	}
	profilesCmd.AddCommand(deleteCmd)
	root.AddCommand(profilesCmd)

	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, _, err := clients()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			info, err := client.Health(ctx)
			if err != nil {
				return err
			}
			if info.Version != "" {
				fmt.Printf("%s (backend %s)\n", info.Status, info.Version)
			} else {
				fmt.Println(info.Status)
			}
			return nil
		},
	}
	root.AddCommand(healthCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent hunts recorded on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.NewHistoryStore("")
			if err != nil {
				return err
			}
			defer store.Close()
			ctx, cancel := signalContext()
			defer cancel()

			events, err := store.Recent(ctx, historyLimit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("no history yet.")
				return nil
			}
			for _, ev := range events {
				when := ev.At.Local().Format("2006-01-02 15:04:05")
				switch ev.Kind {
				case "command":
					if ev.Detail != "" {
						fmt.Printf("%s  %-8s %s (%s)\n", when, ev.Kind, ev.Action, ev.Detail)
					} else {
						fmt.Printf("%s  %-8s %s\n", when, ev.Kind, ev.Action)
					}
				default:
					fmt.Printf("%s  %-8s %s\n", when, ev.Kind, ev.Phase)
				}
			}
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 50, "maximum number of events to show")
	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
