// Command rentledger is the operator CLI over the rent ledger core: seeding,
// dashboard stats, bill drafting, and snapshot backups.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"rentledger/internal/archive"
	"rentledger/internal/core"
	"rentledger/pkg/domain"
	"rentledger/pkg/query"
)

func main() {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "rentledger",
		Short:         "Single-user rent, billing, and meter-reading ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSeedCmd(logger),
		newStatsCmd(logger),
		newDraftBillCmd(logger),
		newBackupCmd(logger),
		newRestoreCmd(logger),
		newBackupsCmd(),
	)
	return root
}

func openService(logger zerolog.Logger) (*core.Service, error) {
	store, err := core.OpenPersistentStore(nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return core.NewService(store, core.WithLogger(logger)), nil
}

func namespace() string {
	if ns := os.Getenv("RENTLEDGER_NAMESPACE"); ns != "" {
		return ns
	}
	return "rent-manager-storage"
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

func newSeedCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Populate an empty store with the reference sample data set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(logger)
			if err != nil {
				return err
			}
			snapshot := svc.Snapshot()
			if len(snapshot.Rooms) > 0 || len(snapshot.Tenants) > 0 {
				return fmt.Errorf("store is not empty; refusing to seed")
			}
			if err := seed(cmd.Context(), svc); err != nil {
				return err
			}
			after := svc.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rooms, %d tenants, %d bills, %d readings\n",
				len(after.Rooms), len(after.Tenants), len(after.Bills), len(after.MeterReadings))
			return nil
		},
	}
}

// seed mirrors the reference data set: five rooms, three tenants, one bill
// and one reading per tenant for the current month.
func seed(ctx context.Context, svc *core.Service) error {
	type roomSpec struct {
		name string
		rent float64
	}
	roomSpecs := []roomSpec{
		{"Room 101", 5000}, {"Room 102", 5500}, {"Room 201", 6000},
		{"Room 202", 4500}, {"Room 301", 7000},
	}
	roomIDs := make([]string, 0, len(roomSpecs))
	for _, rs := range roomSpecs {
		room, err := svc.AddRoom(ctx, core.RoomDraft{Name: rs.name, MonthlyRent: rs.rent})
		if err != nil {
			return fmt.Errorf("seed room %s: %w", rs.name, err)
		}
		roomIDs = append(roomIDs, room.ID)
	}

	tenantDrafts := []core.TenantDraft{
		{Name: "Rahul Sharma", Phone: "+91 98765 43210", Email: "rahul@email.com", MoveInDate: "2024-01-15", RoomIDs: []string{roomIDs[0], roomIDs[1]}},
		{Name: "Priya Patel", Phone: "+91 87654 32109", Email: "priya@email.com", MoveInDate: "2024-03-01", RoomIDs: []string{roomIDs[2]}},
		{Name: "Amit Kumar", Phone: "+91 76543 21098", MoveInDate: "2024-06-10", RoomIDs: []string{roomIDs[4]}},
	}
	tenantIDs := make([]string, 0, len(tenantDrafts))
	for _, td := range tenantDrafts {
		tenant, err := svc.AddTenant(ctx, td)
		if err != nil {
			return fmt.Errorf("seed tenant %s: %w", td.Name, err)
		}
		tenantIDs = append(tenantIDs, tenant.ID)
	}

	month := currentMonth()
	readings := []core.MeterReadingDraft{
		{TenantID: tenantIDs[0], Month: month, PreviousReading: 1200, CurrentReading: 1450},
		{TenantID: tenantIDs[1], Month: month, PreviousReading: 800, CurrentReading: 956},
		{TenantID: tenantIDs[2], Month: month, PreviousReading: 500, CurrentReading: 684},
	}
	for _, rd := range readings {
		if _, err := svc.AddMeterReading(ctx, rd); err != nil {
			return fmt.Errorf("seed reading for %s: %w", rd.TenantID, err)
		}
	}

	bills := []core.BillDraft{
		{TenantID: tenantIDs[0], Month: month, RoomRentTotal: 10500, ElectricityCharge: 1250, WaterCharge: 300, IsPaid: true},
		{TenantID: tenantIDs[1], Month: month, RoomRentTotal: 6000, ElectricityCharge: 780, WaterCharge: 300},
		{TenantID: tenantIDs[2], Month: month, RoomRentTotal: 7000, ElectricityCharge: 920, WaterCharge: 300},
	}
	for _, bd := range bills {
		if _, err := svc.AddBill(ctx, bd); err != nil {
			return fmt.Errorf("seed bill for %s: %w", bd.TenantID, err)
		}
	}
	return nil
}

func newStatsCmd(logger zerolog.Logger) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Dashboard aggregates for a month (default: current)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(logger)
			if err != nil {
				return err
			}
			if month == "" {
				month = currentMonth()
			}
			if !domain.ValidMonth(month) {
				return fmt.Errorf("invalid month %q, want YYYY-MM", month)
			}
			snapshot := svc.Snapshot()
			cur := snapshot.Settings.Currency
			occ := query.Occupancy(snapshot)
			agg := query.MonthAggregates(snapshot, month)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "month:            %s\n", month)
			fmt.Fprintf(out, "active tenants:   %d\n", query.ActiveTenantsCount(snapshot))
			fmt.Fprintf(out, "occupancy:        %d/%d\n", occ.Occupied, occ.Total)
			fmt.Fprintf(out, "collected:        %s%.2f\n", cur, agg.Collected)
			fmt.Fprintf(out, "pending:          %s%.2f\n", cur, agg.Pending)
			fmt.Fprintf(out, "electricity:      %s%.2f\n", cur, agg.ElectricityTotal)
			fmt.Fprintf(out, "water:            %s%.2f\n", cur, agg.WaterTotal)

			for _, point := range query.MonthlyIncomeSeries(snapshot, 6) {
				fmt.Fprintf(out, "income %s:   %s%.2f collected, %s%.2f pending\n", point.Month, cur, point.Collected, cur, point.Pending)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month key YYYY-MM")
	return cmd
}

func newDraftBillCmd(logger zerolog.Logger) *cobra.Command {
	var (
		tenantID string
		month    string
		current  float64
		previous float64
	)
	cmd := &cobra.Command{
		Use:   "draft-bill",
		Short: "Preview a bill for a tenant without committing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(logger)
			if err != nil {
				return err
			}
			if month == "" {
				month = currentMonth()
			}
			var prev *float64
			if cmd.Flags().Changed("previous") {
				prev = &previous
			}
			bill, reading, err := svc.DraftBill(cmd.Context(), tenantID, month, current, prev)
			if err != nil {
				return err
			}
			snapshot := svc.Snapshot()
			cur := snapshot.Settings.Currency

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tenant:           %s\n", query.TenantName(snapshot, tenantID))
			fmt.Fprintf(out, "month:            %s\n", bill.Month)
			fmt.Fprintf(out, "meter:            %.0f -> %.0f (%.0f units)\n", reading.PreviousReading, reading.CurrentReading, reading.UnitsConsumed)
			fmt.Fprintf(out, "room rent:        %s%.2f\n", cur, bill.RoomRentTotal)
			fmt.Fprintf(out, "electricity:      %s%.2f\n", cur, bill.ElectricityCharge)
			fmt.Fprintf(out, "water:            %s%.2f\n", cur, bill.WaterCharge)
			fmt.Fprintf(out, "grand total:      %s%.2f\n", cur, bill.GrandTotal)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id (required)")
	cmd.Flags().StringVar(&month, "month", "", "month key YYYY-MM (default: current)")
	cmd.Flags().Float64Var(&current, "current", 0, "current meter reading (required)")
	cmd.Flags().Float64Var(&previous, "previous", 0, "previous meter reading (default: latest recorded)")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("current")
	return cmd
}

func newBackupCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a snapshot backup to the configured archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openService(logger)
			if err != nil {
				return err
			}
			store, err := archive.Open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			info, err := archive.WriteSnapshot(cmd.Context(), store, namespace(), svc.Snapshot(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes, %s)\n", info.Key, info.Size, store.Driver())
			return nil
		},
	}
}

func newRestoreCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <key>",
		Short: "Replace the store state with an archived snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openService(logger)
			if err != nil {
				return err
			}
			store, err := archive.Open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			snapshot, err := archive.ReadSnapshot(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if err := svc.Store().ImportState(snapshot); err != nil {
				return fmt.Errorf("restore %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s: %d rooms, %d tenants, %d bills, %d readings\n",
				args[0], len(snapshot.Rooms), len(snapshot.Tenants), len(snapshot.Bills), len(snapshot.MeterReadings))
			return nil
		},
	}
}

func newBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List archived snapshot backups for the configured namespace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := archive.Open(cmd.Context())
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			infos, err := archive.ListBackups(cmd.Context(), store, namespace())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no backups")
				return nil
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d bytes\n", info.Key, info.Size)
			}
			return nil
		},
	}
}
