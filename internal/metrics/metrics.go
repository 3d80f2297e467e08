package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values. Partial means the operation left cross-collection
// state inconsistent and the caller was told to reconcile.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultPartial = "partial"
)

var (
	CatalogOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_ops_total",
			Help: "Shopping list add/update/remove operations",
		},
		[]string{"op", "result"},
	)
	BasketMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_moves_total",
			Help: "Item moves between shopping list and basket",
		},
		[]string{"direction", "result"},
	)
	Checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Basket checkouts",
		},
		[]string{"result"},
	)
	Returns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "returns_total",
			Help: "Purchase item returns",
		},
		[]string{"result"},
	)
	PriceEdits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "price_edits_total",
			Help: "Manual purchase amount corrections",
		},
		[]string{"result"},
	)
)
