package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"schoolku_finance/internals/seeds"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Buat/upgrade tabel documents (postgres)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// OpenStore sudah menjalankan AutoMigrate
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "✅ store %q siap\n", e.cfg.StoreDriver)
		return nil
	},
}

var flagSeedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Isi kelas, siswa, dan fee rule dari file YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		path := flagSeedFile
		if path == "" {
			path = e.cfg.SeedFile
		}
		if path == "" {
			return errors.New("seed file kosong: pakai --file atau SEED_FILE")
		}
		data, err := seeds.LoadFinanceSeed(path)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		res, err := seeds.SeedFinance(ctx, e.svc.Store, data, e.logger)
		if err != nil {
			return err
		}
		return printResult(cmd, res, func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "classes\t%d\n", res.Classes)
			fmt.Fprintf(w, "students\t%d\n", res.Students)
			fmt.Fprintf(w, "fee rules created\t%d\n", res.FeeRulesCreated)
			fmt.Fprintf(w, "fee rules skipped\t%d\n", res.FeeRulesSkipped)
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Hitung ulang tagihan semua siswa dari katalog biaya",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		out, err := e.svc.Reconciler.Run(ctx, flagOperator)
		if err != nil {
			return fmt.Errorf("reconcile (committed %d students in %d batches): %w",
				out.StudentsProcessed, out.BatchesCommitted, err)
		}
		return printResult(cmd, out, func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "students\t%d\n", out.StudentsProcessed)
			fmt.Fprintf(w, "batches\t%d\n", out.BatchesCommitted)
			fmt.Fprintf(w, "total due\t%s\n", out.TotalDue.StringFixed(2))
			if out.ZeroState {
				fmt.Fprintln(w, "note\tno active fee rules")
			}
		})
	},
}

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Arsipkan semua transaksi dan nol-kan semua tagihan",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !flagResetYes {
			return errors.New("reset bersifat destruktif: jalankan ulang dengan --yes")
		}
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()
		out, err := e.svc.Resetter.Reset(ctx, flagOperator)
		if err != nil {
			return err
		}
		return printResult(cmd, out, func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "students reset\t%d\n", out.StudentsReset)
			fmt.Fprintf(w, "transactions archived\t%d\n", out.TransactionsArchived)
			fmt.Fprintf(w, "batches\t%d\n", out.BatchesCommitted)
			fmt.Fprintf(w, "atomic\t%v\n", out.Atomic)
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <student_id>",
	Short: "Tampilkan tagihan satu siswa",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		fee, err := e.svc.Summaries.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, fee, func(w *tabwriter.Writer) {
			fmt.Fprintf(w, "student\t%s (%s)\n", fee.StudentFeeStudentName, fee.StudentFeeStudentID)
			fmt.Fprintf(w, "total due\t%s\n", fee.StudentFeeTotalDue.StringFixed(2))
			fmt.Fprintf(w, "paid\t%s\n", fee.StudentFeePaid.StringFixed(2))
			fmt.Fprintf(w, "balance\t%s\n", fee.StudentFeeBalance.StringFixed(2))
			fmt.Fprintf(w, "status\t%s\n", fee.StudentFeeStatus)
			for _, r := range fee.StudentFeeAppliedRules {
				fmt.Fprintf(w, "  %s\t%s\n", r.Name, r.Amount.StringFixed(2))
			}
		})
	},
}

func init() {
	seedCmd.Flags().StringVarP(&flagSeedFile, "file", "f", "", "Path file seed YAML (default SEED_FILE)")
	resetCmd.Flags().BoolVar(&flagResetYes, "yes", false, "Konfirmasi reset")
}

func printResult(cmd *cobra.Command, v any, table func(w *tabwriter.Writer)) error {
	out := cmd.OutOrStdout()
	if flagJSON {
		b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	table(w)
	return w.Flush()
}
