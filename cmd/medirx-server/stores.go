package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/config"
	"github.com/medirx/medirx/internal/domain/account"
	"github.com/medirx/medirx/internal/domain/prescription"
	"github.com/medirx/medirx/internal/domain/profile"
	"github.com/medirx/medirx/internal/domain/reminder"
	"github.com/medirx/medirx/internal/platform/db"
)

// stores bundles the repositories of one backing database.
type stores struct {
	driver        string
	accounts      account.AccountRepository
	prescriptions prescription.PrescriptionRepository
	reminders     reminder.ReminderRepository
	doctors       profile.DoctorProfileRepository
	patients      profile.PatientProfileRepository
	pinger        db.Pinger
	stats         func() any
	close         func()
}

func openStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
		if err != nil {
			return nil, err
		}
		logger.Info().Msg("connected to postgres")
		return &stores{
			driver:        cfg.StoreDriver,
			accounts:      account.NewAccountRepoPG(pool),
			prescriptions: prescription.NewPrescriptionRepoPG(pool),
			reminders:     reminder.NewReminderRepoPG(pool),
			doctors:       profile.NewDoctorRepoPG(pool),
			patients:      profile.NewPatientRepoPG(pool),
			pinger:        pool,
			stats:         func() any { return db.GetPoolStats(pool) },
			close:         pool.Close,
		}, nil

	case config.StoreDriverMongo:
		client, database, err := db.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to mongodb")
		return &stores{
			driver:        cfg.StoreDriver,
			accounts:      account.NewAccountRepoMongo(database),
			prescriptions: prescription.NewPrescriptionRepoMongo(database),
			reminders:     reminder.NewReminderRepoMongo(database),
			doctors:       profile.NewDoctorRepoMongo(database),
			patients:      profile.NewPatientRepoMongo(database),
			pinger:        db.MongoPinger{Client: client},
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warn().Err(err).Msg("disconnect mongodb")
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// latestPrescriptions feeds reminder derivation from the prescription store.
type latestPrescriptions struct {
	repo prescription.PrescriptionRepository
}

func (l latestPrescriptions) LatestFor(ctx context.Context, patientEmail string) (*reminder.Source, error) {
	p, err := l.repo.LatestByPatient(ctx, patientEmail)
	if err != nil {
		return nil, err
	}
	return &reminder.Source{
		PrescriptionID: p.ID,
		PatientEmail:   p.PatientEmail,
		Medicines:      p.Medicines,
		Schedule:       p.Schedule,
	}, nil
}
