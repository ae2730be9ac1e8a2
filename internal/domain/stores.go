package domain

// Stores bundles one instance of every entity store from spec.md §3.2.
// A daemon builds exactly one Stores at startup and shares it between
// the connector, the hydrator, and the stats broadcaster.
type Stores struct {
	Users            *UserStore
	UserAtts         *UserAttStore
	Workers          *WorkerStore
	WorkerStatuses   *WorkerStatusStore
	PaymentAddresses *PaymentAddressStore
	Payments         *PaymentStore
	OptionControl    *OptionControlStore
	WorkInfo         *WorkInfoStore
	Shares           *ShareStore
	ShareErrors      *ShareErrorStore
	ShareSummaries   *ShareSummaryStore
	Blocks           *BlockStore
	MiningPayouts    *MiningPayoutStore
	Auths            *AuthStore
	PoolStats        *PoolStatsStore
	UserStats        *UserStatsStore
}

// NewStores builds an empty Stores, one table per entity.
func NewStores() *Stores {
	return &Stores{
		Users:            NewUserStore(),
		UserAtts:         NewUserAttStore(),
		Workers:          NewWorkerStore(),
		WorkerStatuses:   NewWorkerStatusStore(),
		PaymentAddresses: NewPaymentAddressStore(),
		Payments:         NewPaymentStore(),
		OptionControl:    NewOptionControlStore(),
		WorkInfo:         NewWorkInfoStore(),
		Shares:           NewShareStore(),
		ShareErrors:      NewShareErrorStore(),
		ShareSummaries:   NewShareSummaryStore(),
		Blocks:           NewBlockStore(),
		MiningPayouts:    NewMiningPayoutStore(),
		Auths:            NewAuthStore(),
		PoolStats:        NewPoolStatsStore(),
		UserStats:        NewUserStatsStore(),
	}
}
