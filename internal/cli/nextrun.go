package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/insights-backend/internal/schedule"
)

var (
	nextRunFrequency  string
	nextRunTime       string
	nextRunDayOfWeek  int
	nextRunDayOfMonth int
	nextRunTimezone   string
	nextRunCount      int
	nextRunFrom       string
)

var nextRunCmd = &cobra.Command{
	Use:   "next-run",
	Short: "Preview the upcoming runs of a schedule",
	Long: `Preview the upcoming runs of a schedule in UTC and in its own timezone.

Examples:
  insightctl next-run --frequency daily --time 09:00
  insightctl next-run --frequency weekly --day-of-week 1 --time 08:30 --timezone Europe/London
  insightctl next-run --frequency monthly --day-of-month 31 --count 6`,
	Args: cobra.NoArgs,
	RunE: runNextRun,
}

func init() {
	nextRunCmd.Flags().StringVarP(&nextRunFrequency, "frequency", "f", string(schedule.Daily), "daily, weekly or monthly")
	nextRunCmd.Flags().StringVarP(&nextRunTime, "time", "t", "09:00", "time of day (HH:MM)")
	nextRunCmd.Flags().IntVar(&nextRunDayOfWeek, "day-of-week", -1, "0 (Sunday) to 6 (Saturday), weekly only")
	nextRunCmd.Flags().IntVar(&nextRunDayOfMonth, "day-of-month", 0, "1 to 31, monthly only")
	nextRunCmd.Flags().StringVar(&nextRunTimezone, "timezone", "UTC", "IANA timezone")
	nextRunCmd.Flags().IntVarP(&nextRunCount, "count", "n", 5, "number of runs to show")
	nextRunCmd.Flags().StringVar(&nextRunFrom, "from", "", "reference time (RFC 3339), defaults to now")
}

func runNextRun(cmd *cobra.Command, args []string) error {
	c := schedule.Cadence{
		Frequency: schedule.Frequency(nextRunFrequency),
		TimeOfDay: nextRunTime,
		Timezone:  nextRunTimezone,
	}
	if cmd.Flags().Changed("day-of-week") {
		c.DayOfWeek = &nextRunDayOfWeek
	}
	if cmd.Flags().Changed("day-of-month") {
		c.DayOfMonth = &nextRunDayOfMonth
	}

	from := time.Now()
	if nextRunFrom != "" {
		t, err := time.Parse(time.RFC3339, nextRunFrom)
		if err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
		from = t
	}
	if nextRunCount < 1 {
		return fmt.Errorf("--count must be positive")
	}

	runs, err := schedule.Upcoming(c, from, nextRunCount)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(nextRunTimezone)
	if err != nil {
		loc = time.UTC
	}
	out := cmd.OutOrStdout()
	for _, run := range runs {
		fmt.Fprintf(out, "%s  (%s)\n", run.Format(time.RFC3339), run.In(loc).Format("Mon 02 Jan 2006 15:04 MST"))
	}
	return nil
}
