package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yanqian/aduba/internal/domain/events"
)

var (
	notifications string
	eventsDate    string
	eventType     string
	eventDesc     string
	exportOut     string
	exportSince   string
	statsDays     int
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change device settings",
	RunE:  runSettings,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Composting event log",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events, optionally for one day",
	RunE:  runEventsList,
}

var eventsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log an event",
	RunE:  runEventsAdd,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show daily averages for the last days",
	RunE:  runStats,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download readings as a spreadsheet",
	RunE:  runExport,
}

func init() {
	settingsCmd.Flags().StringVar(&notifications, "notifications", "", "turn notifications on or off")
	eventsListCmd.Flags().StringVar(&eventsDate, "date", "", "only events of this day (YYYY-MM-DD)")
	eventsAddCmd.Flags().StringVar(&eventType, "type", "", "event type, e.g. rega")
	eventsAddCmd.Flags().StringVar(&eventDesc, "description", "", "free text")
	eventsAddCmd.Flags().StringVar(&eventsDate, "date", "", "event day (YYYY-MM-DD), defaults to today")
	_ = eventsAddCmd.MarkFlagRequired("type")
	statsCmd.Flags().IntVar(&statsDays, "days", 0, "number of days (server default when 0)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "leituras.xlsx", "output file")
	exportCmd.Flags().StringVar(&exportSince, "since", "", "only readings recorded since this RFC3339 time")

	eventsCmd.AddCommand(eventsListCmd, eventsAddCmd)
	rootCmd.AddCommand(settingsCmd, eventsCmd, statsCmd, exportCmd)
}

func runSettings(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	ctx := cmd.Context()
	var (
		enabled bool
		change  bool
	)
	switch strings.ToLower(notifications) {
	case "":
	case "on", "true":
		enabled, change = true, true
	case "off", "false":
		enabled, change = false, true
	default:
		return fmt.Errorf("--notifications must be on or off, got %q", notifications)
	}

	s, err := e.client.Settings(ctx)
	if change {
		s, err = e.client.SetNotifications(ctx, enabled)
	}
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	state := "off"
	if s.NotificationsEnabled {
		state = "on"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Device: %s\n", s.DeviceID)
	fmt.Fprintf(out, "Notifications: %s\n", state)
	return nil
}

func runEventsList(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	list, err := e.client.Events(cmd.Context(), eventsDate)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	renderEvents(cmd.OutOrStdout(), list)
	return nil
}

func runEventsAdd(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	ev, err := e.client.AddEvent(cmd.Context(), events.CreateRequest{
		EventType:   eventType,
		Description: eventDesc,
		EventDate:   eventsDate,
	})
	if err != nil {
		return fmt.Errorf("failed to add event: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s\n", ev.EventType, ev.EventDate)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	stats, err := e.client.Stats(cmd.Context(), statsDays)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	out := cmd.OutOrStdout()
	if stats.Sample {
		fmt.Fprintln(out, "No readings in range, showing sample data")
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIA\tUMIDADE\tTEMPERATURA\tPH")
	for _, p := range stats.Points {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%.1f°C\t%.1f\n", p.Date, p.Humidity, p.Temperature, p.PH)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	var since time.Time
	if exportSince != "" {
		parsed, err := time.Parse(time.RFC3339, exportSince)
		if err != nil {
			return fmt.Errorf("--since must be RFC3339: %w", err)
		}
		since = parsed
	}
	data, err := e.client.Export(cmd.Context(), since)
	if err != nil {
		return fmt.Errorf("failed to export readings: %w", err)
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(data), exportOut)
	return nil
}
