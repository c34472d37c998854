package types

// ChatType discriminates conversation kinds on the kernel side.
type ChatType int

const (
	ChatTypeC2C   ChatType = 1
	ChatTypeGroup ChatType = 2
	// ChatTypeTempFromGroup is a temporary session with a non-friend,
	// reachable through a shared group.
	ChatTypeTempFromGroup ChatType = 100
)

// Peer addresses a conversation target. GuildID is carried for wire
// compatibility and is always empty.
type Peer struct {
	ChatType ChatType `json:"chatType"`
	PeerUID  string   `json:"peerUid"`
	GuildID  string   `json:"guildId"`
}

func GroupPeer(groupCode string) Peer {
	return Peer{ChatType: ChatTypeGroup, PeerUID: groupCode, GuildID: ""}
}

func BuddyPeer(uid string) Peer {
	return Peer{ChatType: ChatTypeC2C, PeerUID: uid, GuildID: ""}
}

func (p Peer) IsGroup() bool {
	return p.ChatType == ChatTypeGroup
}

// Session is the process-wide identity of the logged-in account. It is
// passed explicitly into every normalizer/classifier/encoder call instead
// of living in a package global.
type Session struct {
	UIN  string
	UID  string
	Nick string
}
