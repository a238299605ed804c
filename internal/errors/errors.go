// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrUnknownStrategy  = errors.New("unknown strategy code")
	ErrDataUnavailable  = errors.New("market data unavailable")
	ErrMarketClosed     = errors.New("market is closed")
	ErrSessionHalted    = errors.New("session halted by risk manager")
	ErrNoPosition       = errors.New("no open position")
	ErrDatabaseError    = errors.New("database error")
)

// ConfigError represents a fatal configuration error detected at startup.
// The engine must refuse to enter the trading loop when one is returned.
type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Message: message}
}

// StrategyError represents a failure inside one strategy's evaluation.
// It never propagates past the runner: the strategy is treated as having
// produced no signal for that tick.
type StrategyError struct {
	Strategy string
	Bar      string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy error [%s] bar %s: %v", e.Strategy, e.Bar, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// NewStrategyError creates a new StrategyError.
func NewStrategyError(strategy, bar string, err error) *StrategyError {
	return &StrategyError{Strategy: strategy, Bar: bar, Err: err}
}

// DataError represents a data-related error from the data source.
type DataError struct {
	DataType string
	Detail   string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.DataType, e.Detail, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.DataType, e.Detail)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, detail string, err error) *DataError {
	return &DataError{DataType: dataType, Detail: detail, Err: err}
}

// RiskError represents a risk limit violation. Risk checks return
// structured decisions rather than errors; this type exists for the
// registration path where a caller bypasses CheckTrade.
type RiskError struct {
	Rule    string
	Current float64
	Limit   float64
	Message string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk violation [%s]: %s (current: %.2f, limit: %.2f)", e.Rule, e.Message, e.Current, e.Limit)
}

// NewRiskError creates a new RiskError.
func NewRiskError(rule string, current, limit float64, message string) *RiskError {
	return &RiskError{Rule: rule, Current: current, Limit: limit, Message: message}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
