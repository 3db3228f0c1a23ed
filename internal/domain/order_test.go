package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrder_AddLine(t *testing.T) {
	book := &Product{ID: 1, Title: "Clean Architecture", Type: MediaBook, Price: 150000, Quantity: 10}
	cd := &Product{ID: 2, Title: "Abbey Road", Type: MediaCD, Price: 220000, Quantity: 3}

	order := &Order{Status: StatusPending, TaxPercentage: 10}

	assert.NoError(t, order.AddLine(book, 2))
	assert.NoError(t, order.AddLine(cd, 1))

	assert.Len(t, order.Lines, 2)
	assert.Equal(t, int64(150000), order.Lines[0].UnitPrice)
	assert.Equal(t, int64(300000), order.Lines[0].TotalFee)
	assert.Equal(t, int64(220000), order.Lines[1].TotalFee)
	assert.Equal(t, LinePending, order.Lines[0].Status)

	// Unit price is frozen at order time.
	book.Price = 999999
	assert.Equal(t, int64(150000), order.Lines[0].UnitPrice)

	assert.ErrorIs(t, order.AddLine(book, 0), ErrInvalidQuantity)
	assert.ErrorIs(t, order.AddLine(book, -3), ErrInvalidQuantity)
	assert.Len(t, order.Lines, 2)
}

func TestOrder_RecalculateTotals(t *testing.T) {
	tests := []struct {
		name          string
		lines         []OrderLine
		taxPercentage int64
		wantBefore    int64
		wantAfter     int64
	}{
		{
			name:          "default tax",
			lines:         []OrderLine{{TotalFee: 300000}, {TotalFee: 220000}},
			taxPercentage: 10,
			wantBefore:    520000,
			wantAfter:     572000,
		},
		{
			name:          "zero tax",
			lines:         []OrderLine{{TotalFee: 100000}},
			taxPercentage: 0,
			wantBefore:    100000,
			wantAfter:     100000,
		},
		{
			name:          "no lines",
			taxPercentage: 10,
			wantBefore:    0,
			wantAfter:     0,
		},
		{
			name:          "tax truncates toward zero",
			lines:         []OrderLine{{TotalFee: 15}},
			taxPercentage: 10,
			wantBefore:    15,
			wantAfter:     16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Lines: tt.lines, TaxPercentage: tt.taxPercentage}
			order.RecalculateTotals()
			assert.Equal(t, tt.wantBefore, order.TotalBeforeTax)
			assert.Equal(t, tt.wantAfter, order.TotalAfterTax)
		})
	}
}

func TestOrder_Confirm(t *testing.T) {
	order := &Order{Status: StatusPending}
	assert.NoError(t, order.Confirm())
	assert.Equal(t, StatusConfirmed, order.Status)

	err := order.Confirm()
	var transition *InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
	assert.Equal(t, StatusConfirmed, transition.From)
}

func TestOrder_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		status  OrderStatus
		wantErr bool
	}{
		{name: "pending can cancel", status: StatusPending},
		{name: "confirmed can cancel", status: StatusConfirmed},
		{name: "processing cannot cancel", status: StatusProcessing, wantErr: true},
		{name: "shipped cannot cancel", status: StatusShipped, wantErr: true},
		{name: "delivered cannot cancel", status: StatusDelivered, wantErr: true},
		{name: "cancelled cannot cancel again", status: StatusCancelled, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{
				Status: tt.status,
				Lines:  []OrderLine{{ProductID: 1, Quantity: 2, Status: LinePending}},
			}
			err := order.Cancel()
			if tt.wantErr {
				var transition *InvalidTransitionError
				assert.ErrorAs(t, err, &transition)
				assert.Equal(t, tt.status, transition.From)
				assert.Equal(t, StatusCancelled, transition.To)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, StatusCancelled, order.Status)
				assert.Equal(t, LineCancelled, order.Lines[0].Status)
			}
		})
	}
}

func TestOrder_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{name: "pending to confirmed", from: StatusPending, to: StatusConfirmed, want: true},
		{name: "confirmed to processing", from: StatusConfirmed, to: StatusProcessing, want: true},
		{name: "shipped to delivered", from: StatusShipped, to: StatusDelivered, want: true},
		{name: "no skipping forward", from: StatusPending, to: StatusProcessing, want: false},
		{name: "no going back", from: StatusProcessing, to: StatusConfirmed, want: false},
		{name: "pending may cancel", from: StatusPending, to: StatusCancelled, want: true},
		{name: "processing may not cancel", from: StatusProcessing, to: StatusCancelled, want: false},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusConfirmed, want: false},
		{name: "delivered is terminal", from: StatusDelivered, to: StatusCancelled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Status: tt.from}
			assert.Equal(t, tt.want, order.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_ItemHelpers(t *testing.T) {
	order := &Order{
		Lines: []OrderLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 3, RushOrder: true},
		},
	}
	assert.Equal(t, 5, order.TotalItemCount())
	assert.True(t, order.HasRushItems())

	plain := &Order{Lines: []OrderLine{{ProductID: 1, Quantity: 1}}}
	assert.False(t, plain.HasRushItems())
}

func TestProduct_Stock(t *testing.T) {
	p := &Product{ID: 7, Price: 50000, Quantity: 3}

	assert.True(t, p.HasStock(3))
	assert.False(t, p.HasStock(4))

	err := p.ReduceStock(4)
	var stock *InsufficientStockError
	assert.ErrorAs(t, err, &stock)
	assert.Equal(t, uint64(7), stock.ProductID)
	assert.Equal(t, 4, stock.Requested)
	assert.Equal(t, 3, stock.Available)
	assert.Equal(t, 3, p.Quantity)

	assert.NoError(t, p.ReduceStock(2))
	assert.Equal(t, 1, p.Quantity)

	p.AddStock(2)
	assert.Equal(t, 3, p.Quantity)

	assert.Equal(t, int64(150000), p.TotalPrice(3))
}
