// Package finance merangkai service modul keuangan (katalog biaya,
// rekonsiliasi, ledger pembayaran, reset, audit) di atas satu docstore.
package finance

import (
	"go.uber.org/zap"

	"schoolku_finance/internals/databases/docstore"
	audit "schoolku_finance/internals/features/finance/activity/service"
	billing "schoolku_finance/internals/features/finance/billings/service"
	payment "schoolku_finance/internals/features/finance/payments/service"
)

type Services struct {
	Store      docstore.Store
	Audit      *audit.StoreSink
	Catalog    *billing.Catalog
	Reconciler *billing.Reconciler
	Summaries  *billing.SummaryService
	Ledger     *payment.Ledger
	Resetter   *payment.Resetter
	Logger     *zap.Logger
}

type Options struct {
	ReceiptPrefix string
}

func NewServices(store docstore.Store, zl *zap.Logger, opts Options) *Services {
	if zl == nil {
		zl = zap.NewNop()
	}
	sink := audit.NewStoreSink(store, zl.Named("audit"))
	catalog := billing.NewCatalog(store, sink, zl.Named("catalog"))

	var ledgerOpts []payment.LedgerOption
	if opts.ReceiptPrefix != "" {
		ledgerOpts = append(ledgerOpts, payment.WithReceiptPrefix(opts.ReceiptPrefix))
	}

	return &Services{
		Store:      store,
		Audit:      sink,
		Catalog:    catalog,
		Reconciler: billing.NewReconciler(store, catalog, sink, zl.Named("reconcile")),
		Summaries:  billing.NewSummaryService(store, zl.Named("summaries")),
		Ledger:     payment.NewLedger(store, sink, zl.Named("ledger"), ledgerOpts...),
		Resetter:   payment.NewResetter(store, sink, zl.Named("reset")),
		Logger:     zl,
	}
}
