package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jongeeting/development-digest/internal/delivery"
)

var sendOpts struct {
	days      int
	frequency string
	dryRun    bool
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build a digest and deliver it to subscribers by geography",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().IntVar(&sendOpts.days, "days", 1, "number of days to look back")
	sendCmd.Flags().StringVar(&sendOpts.frequency, "frequency", "daily", "subscriber frequency to target")
	sendCmd.Flags().BoolVar(&sendOpts.dryRun, "dry-run", false, "build digests but do not send emails")
}

func runSend(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	since := time.Now().UTC().AddDate(0, 0, -sendOpts.days)
	digest, err := a.builder.Build(cmd.Context(), since)
	if err != nil {
		return err
	}

	if digest.Empty() {
		a.logger.Info("no activity in window, nothing to send", "days", sendOpts.days)
		return nil
	}

	if sendOpts.dryRun {
		summary := delivery.Summarize(digest)
		fmt.Printf("Dry run: %d permits, %d appeals\n", digest.Permits.Len(), digest.Appeals.Len())
		fmt.Printf("Active neighborhoods: %s\n", strings.Join(summary.Neighborhoods, ", "))
		fmt.Printf("Active districts: %s\n", strings.Join(summary.Districts, ", "))
		return nil
	}

	mailer := a.mailer()
	if mailer == nil {
		return errors.New("buttondown delivery is not configured, set BUTTONDOWN_API_KEY")
	}

	svc := delivery.NewService(mailer, a.renderer(a.cfg.MinUnits, sendOpts.days), a.logger, a.metrics)
	sent, err := svc.SendFiltered(cmd.Context(), digest, sendOpts.frequency)
	if err != nil {
		return err
	}
	a.logger.Info("delivery complete", "subscribers", sent)
	return nil
}
