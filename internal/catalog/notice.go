package catalog

import (
	"github.com/Queneri/catalogotefi/prometheus"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
)

// NoticeTopic is the bus topic catalog notices are published on
const NoticeTopic = "catalog:notice"

// NoticeKind classifies a notice for the user
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeFailure NoticeKind = "failure"
	NoticeInfo    NoticeKind = "info"
)

// Notice is the user-facing outcome of one catalog operation
type Notice struct {
	Kind      NoticeKind `json:"kind"`
	Brand     string     `json:"brand"`
	Op        string     `json:"op"`
	ProductID uint       `json:"product_id,omitempty"`
	Message   string     `json:"message"`
	Err       error      `json:"-"`
}

// Notifier receives catalog notices
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

// BusNotifier publishes notices on an event bus
type BusNotifier struct {
	bus EventBus.Bus
}

// NewBusNotifier returns a notifier publishing on bus
func NewBusNotifier(bus EventBus.Bus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (b *BusNotifier) Notify(n Notice) {
	b.bus.Publish(NoticeTopic, n)
}

// SubscribeNotices attaches the logging and metrics subscribers to bus
func SubscribeNotices(bus EventBus.Bus, log *zap.Logger) error {
	if err := bus.Subscribe(NoticeTopic, LogNotice(log)); err != nil {
		return err
	}
	return bus.Subscribe(NoticeTopic, CountNotice)
}

// LogNotice returns a subscriber writing notices to log
func LogNotice(log *zap.Logger) func(n Notice) {
	return func(n Notice) {
		fields := []zap.Field{
			zap.String("brand", n.Brand),
			zap.String("op", n.Op),
		}
		if n.ProductID != 0 {
			fields = append(fields, zap.Uint("product_id", n.ProductID))
		}
		switch n.Kind {
		case NoticeFailure:
			log.Warn(n.Message, append(fields, zap.Error(n.Err))...)
		default:
			log.Info(n.Message, fields...)
		}
	}
}

// CountNotice records a notice in the catalog operation metrics
func CountNotice(n Notice) {
	prometheus.RecordCatalogOperation(n.Brand, n.Op, string(n.Kind))
}
