package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

import "motorapi/internal/model"

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}

// PatientFilter narrows patient listings. Zero values mean no constraint;
// conditions are combined with AND.
type PatientFilter struct {
	// Query matches name or record number as a case-insensitive substring.
	Query string

	// Severity restricts results to a single severity code when non-empty.
	Severity model.Severity

	// MinAge and MaxAge bound the age range, inclusive, when set.
	MinAge *int
	MaxAge *int
}
