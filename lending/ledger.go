package lending

import (
	"context"
	"iter"
	"log/slog"

	"itlend/models"
)

const defaultPageSize = 100

// Ledger owns Laptop.IsAvailable. Nothing else in the repository writes the
// flag. It does not decide when to flip it; the booking lifecycle does.
type Ledger struct {
	store    Store
	guard    Guard
	log      *slog.Logger
	pageSize int
}

func NewLedger(store Store, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, log: log, pageSize: defaultPageSize}
}

// MarkUnavailable is idempotent: an unavailable laptop stays as it is.
func (l *Ledger) MarkUnavailable(ctx context.Context, laptopID uint) error {
	err := l.store.Transaction(ctx, func(tx Querier) error {
		return l.setAvailable(ctx, tx, laptopID, false)
	})
	return infra("mark laptop unavailable", err)
}

// MarkAvailable is idempotent: an available laptop stays as it is.
func (l *Ledger) MarkAvailable(ctx context.Context, laptopID uint) error {
	err := l.store.Transaction(ctx, func(tx Querier) error {
		return l.setAvailable(ctx, tx, laptopID, true)
	})
	return infra("mark laptop available", err)
}

func (l *Ledger) IsAvailable(ctx context.Context, laptopID uint) (bool, error) {
	lp, err := l.store.LaptopByID(ctx, laptopID)
	if err != nil {
		return false, infra("read laptop availability", err)
	}
	if lp == nil {
		return false, notFound(EntityLaptop, laptopID)
	}
	return lp.IsAvailable, nil
}

// ListAvailable yields available laptops in id order, one page per store
// round trip. The sequence is lazy and can be ranged over again for a fresh
// snapshot.
func (l *Ledger) ListAvailable(ctx context.Context) iter.Seq2[models.Laptop, error] {
	return func(yield func(models.Laptop, error) bool) {
		available := true
		var after uint
		for {
			page, err := l.store.ListLaptops(ctx, LaptopQuery{Available: &available, After: after, Limit: l.pageSize})
			if err != nil {
				yield(models.Laptop{}, infra("list available laptops", err))
				return
			}
			for _, lp := range page {
				if !yield(lp, nil) {
					return
				}
				after = lp.ID
			}
			if len(page) < l.pageSize {
				return
			}
		}
	}
}

// Reconcile recomputes the flag from the laptop's open bookings and returns
// the resulting availability. Collaborators call it after operations that
// do not maintain availability themselves (booking update and delete).
func (l *Ledger) Reconcile(ctx context.Context, laptopID uint) (bool, error) {
	var available bool
	err := l.store.Transaction(ctx, func(tx Querier) error {
		var err error
		available, err = l.reconcile(ctx, tx, laptopID)
		return err
	})
	return available, infra("reconcile laptop availability", err)
}

func (l *Ledger) reconcile(ctx context.Context, tx Querier, laptopID uint) (bool, error) {
	lp, err := tx.LockLaptop(ctx, laptopID)
	if err != nil {
		return false, err
	}
	if lp == nil {
		return false, notFound(EntityLaptop, laptopID)
	}
	n, err := tx.CountOpenBookings(ctx, laptopID, 0)
	if err != nil {
		return false, err
	}
	available := n == 0
	if lp.IsAvailable != available {
		l.log.Warn("laptop availability drifted, correcting",
			"laptop_id", laptopID, "open_bookings", n, "available", available)
	}
	return available, l.write(ctx, tx, lp, available)
}

func (l *Ledger) markUnavailable(ctx context.Context, tx Querier, laptopID uint) error {
	return l.setAvailable(ctx, tx, laptopID, false)
}

func (l *Ledger) markAvailable(ctx context.Context, tx Querier, laptopID uint) error {
	return l.setAvailable(ctx, tx, laptopID, true)
}

func (l *Ledger) setAvailable(ctx context.Context, tx Querier, laptopID uint, available bool) error {
	lp, err := tx.LockLaptop(ctx, laptopID)
	if err != nil {
		return err
	}
	if lp == nil {
		return notFound(EntityLaptop, laptopID)
	}
	return l.write(ctx, tx, lp, available)
}

func (l *Ledger) write(ctx context.Context, tx Querier, lp *models.Laptop, available bool) error {
	if lp.IsAvailable == available {
		return nil
	}
	return l.guard.Write(ctx, tx, &models.Laptop{}, EntityLaptop, lp.ID, func() (bool, error) {
		return tx.SetLaptopAvailability(ctx, lp.ID, available, lp.Version)
	})
}
