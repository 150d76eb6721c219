package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stocksense/models"
	"stocksense/observability"
)

func statusFor(t *testing.T, registry *CircuitBreakerRegistry, name string) CircuitBreakerStatus {
	t.Helper()
	for _, s := range registry.Status() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no breaker named %s", name)
	return CircuitBreakerStatus{}
}

func tripBreaker(registry *CircuitBreakerRegistry, name string) {
	for i := 0; i < 5; i++ {
		_, _ = registry.Execute(context.Background(), name, func() (any, error) {
			return nil, errors.New("fail")
		})
	}
}

func TestNewCircuitBreakerRegistry(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
	}

	registry := NewCircuitBreakerRegistry(config)

	if registry == nil {
		t.Fatal("expected registry to be created")
	}
	if registry.breakers == nil {
		t.Error("expected breakers map to be initialized")
	}
	if registry.config != config {
		t.Error("expected config to be set")
	}
}

func TestCircuitBreakerRegistry_GetBreaker(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	breaker1 := registry.GetBreaker(BreakerAlphaVantage)
	if breaker1 == nil {
		t.Fatal("expected breaker to be created")
	}
	if registry.GetBreaker(BreakerAlphaVantage) != breaker1 {
		t.Error("expected same breaker instance")
	}
	if registry.GetBreaker(BreakerAlpaca) == breaker1 {
		t.Error("expected different breaker for different name")
	}
}

func TestCircuitBreakerRegistry_Execute(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	result, err := registry.Execute(ctx, "test-service", func() (any, error) {
		return "success", nil
	})
	if err != nil || result != "success" {
		t.Errorf("Execute() = %v, %v", result, err)
	}

	expectedErr := errors.New("test error")
	result, err = registry.Execute(ctx, "test-service", func() (any, error) {
		return nil, expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
}

func TestCircuitBreakerRegistry_Execute_ContextCanceled(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := registry.Execute(ctx, "test-service", func() (any, error) {
		return "should not reach", nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCircuitBreakerRegistry_Status(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	_, _ = registry.Execute(ctx, "service-b", func() (any, error) {
		return nil, errors.New("fail")
	})
	_, _ = registry.Execute(ctx, "service-a", func() (any, error) {
		return "ok", nil
	})

	status := registry.Status()
	if len(status) != 2 {
		t.Fatalf("expected 2 breakers in status, got %d", len(status))
	}
	if status[0].Name != "service-a" || status[1].Name != "service-b" {
		t.Errorf("expected status sorted by name, got %s, %s", status[0].Name, status[1].Name)
	}
	if status[0].TotalSuccesses != 1 {
		t.Errorf("expected 1 success for service-a, got %d", status[0].TotalSuccesses)
	}
	if status[1].TotalFailures != 1 {
		t.Errorf("expected 1 failure for service-b, got %d", status[1].TotalFailures)
	}
}

func TestCircuitBreakerRegistry_TripsAfterFailures(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     1 * time.Second,
	}
	registry := NewCircuitBreakerRegistry(config)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	registry.SetMetrics(metrics)

	tripBreaker(registry, "failing-service")

	if state := statusFor(t, registry, "failing-service").State; state != "open" {
		t.Errorf("expected breaker to be open, got %s", state)
	}

	_, err := registry.Execute(context.Background(), "failing-service", func() (any, error) {
		return "should not execute", nil
	})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.CircuitBreakerTrips.WithLabelValues("failing-service")); got != 1 {
		t.Errorf("expected 1 trip recorded, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("failing-service")); got != 2 {
		t.Errorf("expected open state (2) recorded, got %f", got)
	}
}

func TestCircuitBreakerRegistry_NotFoundDoesNotTrip(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	for i := 0; i < 10; i++ {
		_, err := registry.Execute(context.Background(), BreakerAlphaVantage, func() (any, error) {
			return nil, fmt.Errorf("resolve FAKESYM: %w", models.ErrSymbolNotFound)
		})
		if !errors.Is(err, models.ErrSymbolNotFound) {
			t.Fatalf("expected ErrSymbolNotFound, got %v", err)
		}
	}

	status := statusFor(t, registry, BreakerAlphaVantage)
	if status.State != "closed" {
		t.Errorf("expected breaker to stay closed, got %s", status.State)
	}
	if status.TotalFailures != 0 {
		t.Errorf("expected 0 failures, got %d", status.TotalFailures)
	}
}

func TestCircuitBreakerRegistry_HalfOpenRecovers(t *testing.T) {
	config := CircuitBreakerConfig{
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     50 * time.Millisecond,
	}
	registry := NewCircuitBreakerRegistry(config)
	tripBreaker(registry, "recovering")

	time.Sleep(80 * time.Millisecond)

	_, err := registry.Execute(context.Background(), "recovering", func() (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected the half-open trial request to pass, got %v", err)
	}
	if state := statusFor(t, registry, "recovering").State; state != "closed" {
		t.Errorf("expected breaker to close after a successful trial request, got %s", state)
	}
}

func TestWithCircuitBreaker_TypedResults(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	type result struct {
		Value int
		Name  string
	}

	got, err := WithCircuitBreaker(context.Background(), "typed-test", func() (*result, error) {
		return &result{Value: 42, Name: "test"}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Value != 42 || got.Name != "test" {
		t.Errorf("unexpected result: %+v", got)
	}

	s, err := WithCircuitBreaker(context.Background(), "typed-test", func() (string, error) {
		return "", errors.New("test error")
	})
	if err == nil || s != "" {
		t.Errorf("expected zero value and error, got %q, %v", s, err)
	}
}

func TestExecuteWith_UsesGivenRegistry(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)

	items, err := ExecuteWith(context.Background(), registry, "slice-test", func() ([]int, error) {
		return []int{1, 2, 3}, nil
	})
	if err != nil || len(items) != 3 {
		t.Errorf("ExecuteWith() = %v, %v", items, err)
	}
	if len(registry.Status()) != 1 {
		t.Error("expected the breaker to be created in the given registry")
	}
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	if DefaultCircuitBreakerConfig.MaxRequests != 5 {
		t.Errorf("expected MaxRequests=5, got %d", DefaultCircuitBreakerConfig.MaxRequests)
	}
	if DefaultCircuitBreakerConfig.Interval != 1*time.Minute {
		t.Errorf("expected Interval=1m, got %v", DefaultCircuitBreakerConfig.Interval)
	}
	if DefaultCircuitBreakerConfig.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %v", DefaultCircuitBreakerConfig.Timeout)
	}
}

func TestGetGlobalRegistry(t *testing.T) {
	registry := GetGlobalRegistry()
	if registry == nil {
		t.Fatal("expected global registry to be created")
	}
	if GetGlobalRegistry() != registry {
		t.Error("expected same global registry instance")
	}
}

func TestCircuitBreakerRegistry_Concurrent(t *testing.T) {
	registry := NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig)
	ctx := context.Background()

	var wg sync.WaitGroup
	errChan := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := registry.Execute(ctx, "concurrent-test", func() (any, error) {
				return id, nil
			})
			if err != nil {
				errChan <- err
			}
		}(i)
	}
	wg.Wait()

	close(errChan)
	for err := range errChan {
		t.Errorf("concurrent execution error: %v", err)
	}

	if got := statusFor(t, registry, "concurrent-test").TotalSuccesses; got != 10 {
		t.Errorf("expected 10 successes, got %d", got)
	}
}
