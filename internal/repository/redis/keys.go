package redis

import "fmt"

const ns = "boxoffice:v1"

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventList() string {
	return ns + ":events:public"
}

func KeySettings() string {
	return ns + ":settings"
}

func KeyIdemPurchase(eventID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:purchase:%d:%s", ns, eventID, idemKey)
}

func ChannelContentChanged() string {
	return ns + ":content:changed"
}
