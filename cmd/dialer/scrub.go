package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/davidleathers/campaign-dialer/internal/infrastructure/database"
	"github.com/davidleathers/campaign-dialer/internal/service/compliance"
)

func newScrubCmd() *cobra.Command {
	var org string

	cmd := &cobra.Command{
		Use:   "scrub [file]",
		Short: "Partition a phone list into callable and DNC-blocked numbers",
		Long:  "Reads one phone number per line from file, or stdin when no file is given, and prints the scrub result as JSON.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := uuid.Parse(org)
			if err != nil {
				return fmt.Errorf("invalid --org: %w", err)
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			phones, err := readPhones(in)
			if err != nil {
				return err
			}

			cfg, logger, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			pool, err := database.NewPool(ctx, cfg.Database, logger)
			if err != nil {
				return err
			}
			defer pool.Close()

			gate := compliance.NewGate(
				database.NewDNCRepository(pool),
				database.NewConsentRepository(pool),
				database.NewContactRepository(pool),
				nil, nil, nil, nil,
				logger,
			)

			result, err := gate.ScrubContacts(ctx, phones, orgID)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func readPhones(r io.Reader) ([]string, error) {
	var phones []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			phones = append(phones, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read phones: %w", err)
	}
	return phones, nil
}
