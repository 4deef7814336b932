package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devblog/postsapi/message"
)

// PublisherPrometheusMetricsDecorator measures how long publishing took, per topic.
type PublisherPrometheusMetricsDecorator struct {
	pub                message.Publisher
	publishTimeSeconds *prometheus.HistogramVec
}

// Publish updates the publisher metrics and calls the wrapped publisher's Publish.
func (m PublisherPrometheusMetricsDecorator) Publish(topic string, messages ...*message.Message) (err error) {
	start := time.Now()

	defer func() {
		m.publishTimeSeconds.With(prometheus.Labels{
			labelKeyTopic: topic,
			labelSuccess:  successLabel(err),
		}).Observe(time.Since(start).Seconds())
	}()

	return m.pub.Publish(topic, messages...)
}

// Close calls the wrapped Close.
func (m PublisherPrometheusMetricsDecorator) Close() error {
	return m.pub.Close()
}

// DecoratePublisher wraps the underlying publisher with Prometheus metrics.
func (b PrometheusMetricsBuilder) DecoratePublisher(pub message.Publisher) (message.Publisher, error) {
	var err error
	d := PublisherPrometheusMetricsDecorator{
		pub: pub,
	}

	d.publishTimeSeconds, err = b.registerHistogramVec(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: b.Namespace,
			Subsystem: b.Subsystem,
			Name:      "publish_time_seconds",
			Help:      "The time that a publishing attempt (success or not) took in seconds",
		},
		publisherLabelKeys,
	))
	if err != nil {
		return nil, errors.Wrap(err, "could not register publish time metric")
	}

	return d, nil
}
