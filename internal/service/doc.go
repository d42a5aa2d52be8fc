// Package service contains the orchestration logic of the system: deck and
// card management, rate-limited batch submission of generation tasks, the
// status reconciler that turns provider task states into card and deck
// outcomes, and the retroactive failed-task scan.
package service
