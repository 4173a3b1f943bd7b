// Package typing holds the pure state-transition logic for a typing session.
// Both entry points mutate the session in place against an immutable challenge
// text and return the delta view that feeds the `update:me` event. Neither
// performs I/O; the caller supplies the clock.
package typing

import (
	"math"
	"time"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

// Backspace is the single control rune the algorithm recognizes.
const Backspace = '\u0008'

// ApplyType consumes a batch of typed characters in order. The first printable
// character starts the session clock; a leading backspace does not.
//
// Backspace moves the cursor back, but never across a previously typed space
// once the word was committed: erasing is only allowed within the current
// word's mistyped tail. Printable characters advance the cursor and, when they
// match the expected byte at the correct position, the correct cursor too.
// Reaching the end of the text finishes the session and freezes it; input past
// that point is dropped.
func ApplyType(s *model.Session, input []rune, text []byte, now time.Time) model.PartialParticipantData {
	textLen := len(text)

	for _, c := range input {
		if s.CorrectPosition == textLen && s.EndedAt != nil {
			break
		}

		if c == Backspace {
			switch {
			case s.CurrentPosition > s.CorrectPosition:
				// Erasing a mistyped tail: only the typed cursor moves.
				s.CurrentPosition--
			case s.CurrentPosition == s.CorrectPosition && s.CurrentPosition > 0 && text[s.CurrentPosition-1] != ' ':
				s.CorrectPosition--
				s.CurrentPosition--
			}
			// Backspace never counts as a keystroke.
		} else {
			if s.StartedAt == nil {
				t := now
				s.StartedAt = &t
			}
			s.TotalKeystrokes++
			if s.CurrentPosition < textLen {
				if s.CurrentPosition == s.CorrectPosition && c == rune(text[s.CurrentPosition]) {
					s.CorrectPosition++
				}
				s.CurrentPosition++
			}
		}

		if s.CorrectPosition == textLen && s.EndedAt == nil {
			t := now
			s.EndedAt = &t
			s.CurrentPosition = s.CorrectPosition
			break
		}
	}

	recompute(s, now)
	return model.PartialOf(*s)
}

// ApplyProgress applies a client-reported position snapshot. Reports that are
// internally inconsistent or arrive after the session finished are rejected
// with the matching failure code and leave the session untouched.
func ApplyProgress(s *model.Session, p model.ProgressPayload, text []byte, now time.Time) (model.PartialParticipantData, error) {
	textLen := len(text)
	if p.CurrentPosition > textLen || p.CorrectPosition > textLen || p.CorrectPosition > p.CurrentPosition {
		return model.PartialParticipantData{}, model.NewFailure(model.CodeInvalidProgress, "Invalid progress report.")
	}
	if s.EndedAt != nil {
		return model.PartialParticipantData{}, model.NewFailure(model.CodeSessionEnded, "Session has already ended.")
	}

	s.CurrentPosition = p.CurrentPosition
	s.CorrectPosition = p.CorrectPosition
	s.TotalKeystrokes = p.TotalKeystrokes
	if s.StartedAt == nil {
		t := now
		s.StartedAt = &t
	}
	if s.CorrectPosition == textLen {
		t := now
		s.EndedAt = &t
	}

	recompute(s, now)
	return model.PartialOf(*s), nil
}

// recompute refreshes the derived metrics. Speed is words per minute with the
// conventional five characters per word; accuracy is correct characters over
// total keystrokes.
func recompute(s *model.Session, now time.Time) {
	if s.StartedAt == nil {
		s.CurrentSpeed = 0
		s.CurrentAccuracy = 100
		return
	}

	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	minutes := math.Max(float64(end.Sub(*s.StartedAt).Milliseconds())/60000.0, 0.0001)
	s.CurrentSpeed = math.Round(float64(s.CorrectPosition) / 5.0 / minutes)

	if s.TotalKeystrokes > 0 {
		acc := math.Round(float64(s.CorrectPosition) / float64(s.TotalKeystrokes) * 100.0)
		s.CurrentAccuracy = math.Min(math.Max(acc, 0), 100)
	} else {
		s.CurrentAccuracy = 100
	}
}
