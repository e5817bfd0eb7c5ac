package components

import (
	"venue-booking/internal/handler/api"
	"venue-booking/internal/infra/uow"
	"venue-booking/internal/usecase/queries"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		// UnitOfWork builds the booking and outbox repositories per transaction
		uow.NewPostgresUoW,
		NewPinger,
		// Read-side use case
		queries.NewBookingQueries,
	),
)

func NewPinger(pool *pgxpool.Pool) api.Pinger {
	return pool
}
