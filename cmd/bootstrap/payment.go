package bootstrap

import (
	"log/slog"

	"venue-booking/internal/infra/payment"
	"venue-booking/internal/pkg/config"
	"venue-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var PaymentModule = fx.Module("payment",
	fx.Provide(
		NewPaymentGateway,
	),
)

func NewPaymentGateway(cfg config.Config, logger *slog.Logger) (shared.PaymentGateway, error) {
	if cfg.Payment.Provider != "omise" {
		logger.Warn("Payment provider disabled, card payments will be rejected")
		return payment.DisabledGateway{}, nil
	}
	client, err := payment.NewOmiseClient(cfg.Payment.PublicKey, cfg.Payment.SecretKey)
	if err != nil {
		return nil, err
	}
	return payment.NewOmiseGateway(client, logger), nil
}
