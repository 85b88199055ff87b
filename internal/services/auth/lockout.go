package auth

import (
	"time"

	"linkregistry/internal/domain/models"
)

const (
	MaxFailedAttempts = 5
	LockoutDuration   = 24 * time.Hour
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeRejected
	OutcomeLocked
)

// LockRemaining сообщает, действует ли блокировка в момент now.
func LockRemaining(st models.LoginState, now time.Time) (time.Duration, bool) {
	if st.BlockedUntil == nil || !now.Before(*st.BlockedUntil) {
		return 0, false
	}
	return st.BlockedUntil.Sub(now), true
}

// Transition вычисляет новое состояние после проверки пароля.
// Вызывается только для незаблокированного пользователя, Version не меняется.
func Transition(st models.LoginState, passwordOK bool, now time.Time) (models.LoginState, Outcome) {
	next := models.LoginState{Version: st.Version}

	if passwordOK {
		return next, OutcomeSuccess
	}

	attempts := st.FailedAttempts
	if st.LastFailedAt != nil && !sameDay(*st.LastFailedAt, now) {
		attempts = 0
	}
	attempts++

	failedAt := now
	next.LastFailedAt = &failedAt

	if attempts >= MaxFailedAttempts {
		until := now.Add(LockoutDuration)
		next.BlockedUntil = &until
		return next, OutcomeLocked
	}

	next.FailedAttempts = attempts
	return next, OutcomeRejected
}

// sameDay сравнивает календарные даты в UTC.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func isClean(st models.LoginState) bool {
	return st.FailedAttempts == 0 && st.LastFailedAt == nil && st.BlockedUntil == nil
}
