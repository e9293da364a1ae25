// SPDX-License-Identifier: MIT

package lime

import "strings"

// Media types used by BLiP documents.
const (
	MediaTypeTextPlain        = "text/plain"
	MediaTypeJSON             = "application/json"
	MediaTypePing             = "application/vnd.lime.ping+json"
	MediaTypeIdentity         = "application/vnd.lime.identity+json"
	MediaTypeContact          = "application/vnd.lime.contact+json"
	MediaTypeAccount          = "application/vnd.lime.account+json"
	MediaTypeCollection       = "application/vnd.lime.collection+json"
	MediaTypeDistributionList = "application/vnd.iris.distribution-list+json"
	MediaTypeEventTrack       = "application/vnd.iris.eventTrack+json"
	MediaTypeTicket           = "application/vnd.iris.ticket+json"
	MediaTypeDocumentSelect   = "application/vnd.lime.document-select+json"
	MediaTypeChatState        = "application/vnd.lime.chatstate+json"
)

// PingURI is the URI the server uses to probe a connected client.
const PingURI = "/ping"

// IsJSON reports whether the media type carries a JSON document.
func IsJSON(mediaType string) bool {
	return mediaType == MediaTypeJSON || strings.HasSuffix(mediaType, "+json")
}

// PlainText is the content of a text/plain message.
type PlainText string
