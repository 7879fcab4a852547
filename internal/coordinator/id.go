package coordinator

import "github.com/rs/xid"

func newUtteranceID() string {
	return xid.New().String()
}
