// Package entitlement provides domain models for usage quotas and seat entitlements.
//
// This package implements the entitlement bounded context, which is responsible for:
//   - Answering "may this principal perform this action right now?" for the
//     platform's gated features (book uploads, quiz generation, AI queries,
//     class creation, institute enrollment)
//   - Tracking per-principal usage counters and rolling monthly counters over
//     at calendar-month boundaries
//   - Managing seat pools that bound how many students a teacher or institute
//     subscription can hold
//
// Key Aggregates:
//   - UsageProfile: Per-principal usage counters and the monthly reset anchor
//   - SeatPool: Seat capacity and consumption for a teacher or institute
//   - PlanOverride: Admin-set per-principal limit override
//
// Value Objects:
//   - Feature: Enumeration of gated features
//   - Limit: A quota bound that is either a finite count or unlimited
//   - Plan: A catalog entry mapping a subscription tier to its feature limits
//   - Decision: The outcome of an entitlement check
//
// The entitlement domain integrates with:
//   - Identity domain: For account roles, tiers and institute membership
//   - Library and study domains: As sources of live usage counts
package entitlement
