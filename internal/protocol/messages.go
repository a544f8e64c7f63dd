// Package protocol builds and recognizes the newline-delimited text lines
// exchanged with game clients.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/numberguess/internal/model"
)

// Server -> client keywords
const (
	KeywordNameRequest = "NAME_REQUEST"
	KeywordWelcome     = "WELCOME"
	KeywordRound       = "ROUND"
	KeywordTooLow      = "TOO_LOW"
	KeywordTooHigh     = "TOO_HIGH"
	KeywordRejected    = "REJECTED"
	KeywordRoundOver   = "ROUND_OVER"
	KeywordCorrect     = "CORRECT"
	KeywordWin         = "WIN"
	KeywordRanking     = "RANKING"
	KeywordRank        = "RANK"
	KeywordJoined      = "JOINED"
	KeywordLeft        = "LEFT"
	KeywordAttempt     = "ATTEMPT"
	KeywordError       = "ERROR"
	KeywordBye         = "BYE"
	KeywordShutdown    = "SHUTDOWN"
)

// Client -> server commands
const (
	CommandQuit    = "quit"
	CommandQuitAlt = "sair"
	CommandRanking = "ranking"
)

// Error codes carried by ERROR lines
const (
	CodeNameTaken    = "NAME_TAKEN"
	CodeInvalidName  = "INVALID_NAME"
	CodeServerFull   = "SERVER_FULL"
	CodeTooManyTries = "TOO_MANY_TRIES"
	CodeInternal     = "INTERNAL_ERROR"
)

// IsQuit reports whether the line is the disconnect sentinel
func IsQuit(line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	return cmd == CommandQuit || cmd == CommandQuitAlt
}

// IsRankingRequest reports whether the client asked for the ranking table
func IsRankingRequest(line string) bool {
	return strings.ToLower(strings.TrimSpace(line)) == CommandRanking
}

// NameRequest asks the client for its display name
func NameRequest() string {
	return KeywordNameRequest
}

// Welcome confirms a registration
func Welcome(name string) string {
	return join(KeywordWelcome, name)
}

// RoundStart announces the public view of a round
func RoundStart(view model.RoundView) string {
	return join(KeywordRound, strconv.Itoa(view.Number), strconv.Itoa(view.Range.Min), strconv.Itoa(view.Range.Max))
}

// Feedback is the private reply to a missed guess
func Feedback(result model.GuessResult) string {
	keyword := KeywordTooLow
	if result.Outcome == model.OutcomeTooHigh {
		keyword = KeywordTooHigh
	}
	return join(keyword, strconv.Itoa(result.Attempts))
}

// Rejected is the private reply to unparseable or out-of-range guess text
func Rejected(err error) string {
	return join(KeywordRejected, err.Error())
}

// RoundOver tells a client its guess arrived after the round was won
func RoundOver() string {
	return KeywordRoundOver
}

// Correct is the private confirmation sent to the winner
func Correct(result model.GuessResult) string {
	return join(KeywordCorrect, strconv.Itoa(result.Secret), strconv.Itoa(result.Attempts), strconv.Itoa(result.Points))
}

// Win announces the winner to everyone
func Win(name string, result model.GuessResult) string {
	return join(KeywordWin, name, strconv.Itoa(result.Secret), strconv.Itoa(result.Attempts), strconv.Itoa(result.Points))
}

// Ranking renders the ranking table: a header line followed by one line per player
func Ranking(entries []model.RankEntry) string {
	var b strings.Builder
	b.WriteString(join(KeywordRanking, strconv.Itoa(len(entries))))
	for _, e := range entries {
		b.WriteByte('\n')
		b.WriteString(join(KeywordRank, strconv.Itoa(e.Position), e.Name, strconv.Itoa(e.Score)))
	}
	return b.String()
}

// Joined announces a new player
func Joined(name string) string {
	return join(KeywordJoined, name)
}

// Left announces a departed player
func Left(name string) string {
	return join(KeywordLeft, name)
}

// Attempt tells the other players that someone missed
func Attempt(name string, attempts int) string {
	return join(KeywordAttempt, name, strconv.Itoa(attempts))
}

// Error renders an ERROR line
func Error(code, text string) string {
	return join(KeywordError, code, text)
}

// ErrorFor maps a registration error to its ERROR line
func ErrorFor(err error) string {
	switch {
	case errors.Is(err, model.ErrDuplicateName):
		return Error(CodeNameTaken, "that name is already in use")
	case errors.Is(err, model.ErrInvalidName):
		return Error(CodeInvalidName, err.Error())
	case errors.Is(err, model.ErrServerFull):
		return Error(CodeServerFull, "the server is full, try again later")
	default:
		return Error(CodeInternal, "internal error")
	}
}

// TooManyTries closes a registration that kept failing
func TooManyTries(limit int) string {
	return Error(CodeTooManyTries, fmt.Sprintf("no valid name after %d tries", limit))
}

// Bye acknowledges the disconnect sentinel
func Bye() string {
	return KeywordBye
}

// Shutdown warns that the server is going away
func Shutdown() string {
	return KeywordShutdown
}

func join(parts ...string) string {
	return strings.Join(parts, " ")
}
