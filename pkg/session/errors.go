package session

import (
	"errors"
	"fmt"
)

// 画面に表示するメッセージです。
const (
	MsgValidation     = "Please upload at least one image and provide a prompt."
	MsgNoImage        = "The AI didn't return an image. Try a different prompt."
	MsgConversion     = "Could not use the generated image as a new base."
	MsgConfirmClear   = "Are you sure you want to clear the entire history? This cannot be undone."
	hardFailureFormat = "Failed to generate image: %s"
)

var (
	// ErrSubmitInProgress は生成リクエストの実行中に、ドラフトの変更や再送信が行われたことを示します。
	ErrSubmitInProgress = errors.New("generation request already in flight")
	// ErrIndexOutOfRange は存在しないベース画像のインデックスが指定されたことを示します。
	ErrIndexOutOfRange = errors.New("base image index out of range")
	// ErrInvalidSeed はシードが 32 ビット整数として解釈できないことを示します。
	ErrInvalidSeed = errors.New("seed must be a 32-bit integer")
	// ErrHistoryItemNotFound は指定した ID の履歴が存在しないことを示します。
	ErrHistoryItemNotFound = errors.New("history item not found")
)

// ErrorKind はセッション操作の失敗の種類です。
type ErrorKind int

const (
	// KindValidation は入力不足により送信前に止めたことを示します。
	KindValidation ErrorKind = iota + 1
	// KindSoftFailure は応答に画像が含まれなかったことを示します。ドラフトは保持されます。
	KindSoftFailure
	// KindHardFailure は生成リクエスト自体が失敗したことを示します。ドラフトは保持されます。
	KindHardFailure
	// KindConversion は生成画像を新しいベース画像に戻せなかったことを示します。
	KindConversion
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSoftFailure:
		return "soft_failure"
	case KindHardFailure:
		return "hard_failure"
	case KindConversion:
		return "conversion"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error は画面にそのまま表示できるメッセージを持つセッションエラーです。
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf は err が *Error であればその種類を返します。
func KindOf(err error) (ErrorKind, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}

func hardFailure(err error) *Error {
	return &Error{
		Kind:    KindHardFailure,
		Message: fmt.Sprintf(hardFailureFormat, err.Error()),
		Err:     err,
	}
}
