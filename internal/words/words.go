// Package words renders invoice amounts in words.
package words

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Placeholder is stored instead of the words when no converter could answer.
const Placeholder = "[montant en lettres indisponible]"

// ErrUnavailable is returned when a converter cannot produce the words.
var ErrUnavailable = errors.New("words: conversion unavailable")

// Converter turns an amount into its written form.
type Converter interface {
	Words(ctx context.Context, amount decimal.Decimal) (string, error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(ctx context.Context, amount decimal.Decimal) (string, error)

// Words calls f.
func (f ConverterFunc) Words(ctx context.Context, amount decimal.Decimal) (string, error) {
	return f(ctx, amount)
}
