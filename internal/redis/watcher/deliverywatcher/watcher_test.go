package deliverywatcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	orderstore "ordercastgo/internal/store/order"
)

type fakeService struct {
	flagged []string
}

func (f *fakeService) PlaceOrder(context.Context, string, float64) (*orderstore.Order, error) {
	return nil, nil
}

func (f *fakeService) UpdateStatus(context.Context, string, string, string) (*orderstore.Order, error) {
	return nil, nil
}

func (f *fakeService) AssignCourier(context.Context, string, string) (*orderstore.Order, error) {
	return nil, nil
}

func (f *fakeService) GetOrder(context.Context, string) (*orderstore.Order, error) {
	return nil, nil
}

func (f *fakeService) ListOrders(context.Context, string, int, int) ([]orderstore.Order, error) {
	return nil, nil
}

func (f *fakeService) FlagOverdue(_ context.Context, orderID string) error {
	f.flagged = append(f.flagged, orderID)
	return nil
}

func TestHandleExpired_FlagsTimerKeysOnly(t *testing.T) {
	svc := &fakeService{}
	ctx := context.Background()

	handleExpired(ctx, svc, "ord_t:o1")
	handleExpired(ctx, svc, "ord:o2")            // tracking snapshot, not a timer
	handleExpired(ctx, svc, "notif:unread:u1")   // unrelated namespace
	handleExpired(ctx, svc, "session:ord_t:o3")  // prefix must anchor at the start
	handleExpired(ctx, svc, "ord_t:o4")

	assert.Equal(t, []string{"o1", "o4"}, svc.flagged)
}
