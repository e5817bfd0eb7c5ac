package payment

import (
	"context"
	"log/slog"
	"strings"

	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

const bookingIDKey = "booking_id"

// ChargeClient is the subset of the Omise API the gateway calls.
type ChargeClient interface {
	CreateCharge(ctx context.Context, op *operations.CreateCharge) (*omise.Charge, error)
	RetrieveCharge(ctx context.Context, chargeID string) (*omise.Charge, error)
}

type omiseClient struct {
	c *omise.Client
}

func NewOmiseClient(publicKey, secretKey string) (ChargeClient, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, errs.Wrap(err, "create omise client")
	}
	return &omiseClient{c: c}, nil
}

func (o *omiseClient) CreateCharge(_ context.Context, op *operations.CreateCharge) (*omise.Charge, error) {
	ch := &omise.Charge{}
	if err := o.c.Do(ch, op); err != nil {
		return nil, err
	}
	return ch, nil
}

func (o *omiseClient) RetrieveCharge(_ context.Context, chargeID string) (*omise.Charge, error) {
	ch := &omise.Charge{}
	if err := o.c.Do(ch, &operations.RetrieveCharge{ChargeID: chargeID}); err != nil {
		return nil, err
	}
	return ch, nil
}

type OmiseGateway struct {
	client ChargeClient
	logger *slog.Logger
}

func NewOmiseGateway(client ChargeClient, logger *slog.Logger) *OmiseGateway {
	return &OmiseGateway{client: client, logger: logger}
}

func (g *OmiseGateway) Charge(ctx context.Context, req shared.ChargeRequest) (*shared.PaymentResult, error) {
	if req.AmountCents <= 0 || req.CardToken == "" || req.Currency == "" {
		return nil, errs.Newf("invalid charge for booking %s", req.BookingID)
	}

	ch, err := g.client.CreateCharge(ctx, &operations.CreateCharge{
		Amount:      req.AmountCents,
		Currency:    strings.ToLower(req.Currency),
		Card:        req.CardToken,
		Description: req.Description,
		Metadata:    map[string]any{bookingIDKey: req.BookingID.String()},
	})
	if err != nil {
		return nil, errs.Wrapf(err, "create charge for booking %s", req.BookingID)
	}

	res := toResult(ch)
	if res.BookingID == uuid.Nil {
		res.BookingID = req.BookingID
	}
	g.logger.InfoContext(ctx, "Charge created",
		"booking_id", req.BookingID.String(),
		"charge_id", res.ChargeID,
		"status", string(res.Status))
	return res, nil
}

func (g *OmiseGateway) Retrieve(ctx context.Context, chargeID string) (*shared.PaymentResult, error) {
	ch, err := g.client.RetrieveCharge(ctx, chargeID)
	if err != nil {
		return nil, errs.Wrapf(err, "retrieve charge %s", chargeID)
	}
	return toResult(ch), nil
}

// toResult collapses Omise charge states into the three outcomes bookings care about.
func toResult(ch *omise.Charge) *shared.PaymentResult {
	res := &shared.PaymentResult{ChargeID: ch.ID}

	switch string(ch.Status) {
	case "successful":
		res.Status = shared.PaymentSucceeded
	case "pending":
		res.Status = shared.PaymentPending
	default:
		res.Status = shared.PaymentFailed
	}

	if ch.FailureMessage != nil {
		res.FailureMessage = *ch.FailureMessage
	} else if ch.FailureCode != nil {
		res.FailureMessage = *ch.FailureCode
	}

	if raw, ok := ch.Metadata[bookingIDKey].(string); ok {
		if id, err := uuid.Parse(raw); err == nil {
			res.BookingID = id
		}
	}
	return res
}

// DisabledGateway rejects every payment. Used when PAYMENT_PROVIDER=disabled.
type DisabledGateway struct{}

func (DisabledGateway) Charge(context.Context, shared.ChargeRequest) (*shared.PaymentResult, error) {
	return nil, shared.ErrPaymentUnavailable
}

func (DisabledGateway) Retrieve(context.Context, string) (*shared.PaymentResult, error) {
	return nil, shared.ErrPaymentUnavailable
}
