package emulator

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/ashendes/restaurant-ordering/internal/metrics"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var errChaos = errors.New("simulated partner failure")

// chaos injects failures and latency into partner endpoints
type chaos struct {
	mu          sync.RWMutex
	enabled     bool
	slow        bool
	failureRate float64
	slowMin     time.Duration
	slowSpread  time.Duration

	rngMu sync.Mutex
	rng   *rand.Rand
	sleep func(time.Duration)
}

func newChaos(failureRate float64, slowMin, slowMax time.Duration, seed int64) *chaos {
	spread := slowMax - slowMin
	if spread < 0 {
		spread = 0
	}
	return &chaos{
		failureRate: failureRate,
		slowMin:     slowMin,
		slowSpread:  spread,
		rng:         rand.New(rand.NewSource(seed)),
		sleep:       time.Sleep,
	}
}

func (c *chaos) setEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *chaos) isEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

func (c *chaos) setSlow(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slow = enabled
}

func (c *chaos) isSlow() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slow
}

func (c *chaos) float() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}

func (c *chaos) delay() time.Duration {
	if c.slowSpread == 0 {
		return c.slowMin
	}
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.slowMin + time.Duration(c.rng.Int63n(int64(c.slowSpread)))
}

func (c *chaos) simulate() error {
	if c.isSlow() {
		d := c.delay()
		log.WithField("delay_ms", d.Milliseconds()).Debug("Chaos: Simulating slow response")
		c.sleep(d)
	}
	if c.isEnabled() && c.float() < c.failureRate {
		return errChaos
	}
	return nil
}

func (s *Server) enableChaos(c *gin.Context) {
	s.chaos.setEnabled(true)
	metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(1)

	log.Info("Chaos mode ENABLED for partner emulator")
	c.JSON(http.StatusOK, gin.H{
		"message":      "Chaos mode enabled",
		"failure_rate": s.chaos.failureRate,
	})
}

func (s *Server) disableChaos(c *gin.Context) {
	s.chaos.setEnabled(false)
	s.chaos.setSlow(false)
	metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(0)
	metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(0)

	log.Info("Chaos mode DISABLED for partner emulator")
	c.JSON(http.StatusOK, gin.H{"message": "Chaos mode disabled"})
}

func (s *Server) enableSlowMode(c *gin.Context) {
	s.chaos.setSlow(true)
	metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(1)

	log.Info("Slow mode ENABLED for partner emulator")
	c.JSON(http.StatusOK, gin.H{
		"message": "Slow mode enabled",
		"min_ms":  s.chaos.slowMin.Milliseconds(),
		"max_ms":  (s.chaos.slowMin + s.chaos.slowSpread).Milliseconds(),
	})
}

func (s *Server) disableSlowMode(c *gin.Context) {
	s.chaos.setSlow(false)
	metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(0)

	log.Info("Slow mode DISABLED for partner emulator")
	c.JSON(http.StatusOK, gin.H{"message": "Slow mode disabled"})
}
