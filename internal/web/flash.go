package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/syncer"
)

// Flash kinds.
const (
	flashSuccess = "success"
	flashError   = "error"
)

// User-facing messages.
const (
	msgAdded            = "登録しました！"
	msgAddFailed        = "登録に失敗しました。"
	msgConsumed         = "記録しました。"
	msgConsumeFailed    = "記録に失敗しました。"
	msgArchived         = "削除しました。"
	msgArchiveFailed    = "削除に失敗しました。"
	msgSynced           = "最新の状態に更新しました。"
	msgCommError        = "通信エラーが発生しました。"
	msgOffline          = "通信エラーが発生しました。オフラインの可能性があります。"
	msgItemNotFound     = "アイテムが見つかりません。"
	msgInvalidQty       = "数量が正しくありません。"
	msgInvalidThreshold = "発注点が正しくありません。"
	msgPhotoRejected    = "写真を読み込めませんでした。"
	msgSavedNotSynced   = "保存しましたが、一覧の更新に失敗しました。"
)

// redirectFlash redirects to path with a flash message for the next page.
func redirectFlash(w http.ResponseWriter, r *http.Request, path, kind, msg string) {
	q := url.Values{}
	q.Set("msg", msg)
	q.Set("kind", kind)
	http.Redirect(w, r, path+"?"+q.Encode(), http.StatusSeeOther)
}

// failureMessage picks the message for a failed write. Transport failures get
// the generic communication error; rejections get the action's own message.
func failureMessage(err error, rejected string) string {
	switch {
	case errors.Is(err, syncer.ErrRefreshFailed):
		return msgSavedNotSynced
	case errors.Is(err, syncer.ErrUnreachable):
		return msgCommError
	case errors.Is(err, inventory.ErrNotFound), errors.Is(err, inventory.ErrArchived):
		return msgItemNotFound
	default:
		return rejected
	}
}
