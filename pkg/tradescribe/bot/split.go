// split.go holds the Discord message-size helpers. Discord rejects
// messages over 2000 characters, so replies are truncated and long trade
// summaries are split into line-packed chunks.
package bot

import "strings"

// maxMessageLen is Discord's per-message character ceiling.
const maxMessageLen = 2000

// summaryHeader opens the first trade-summary chunk.
const summaryHeader = "Here's your latest trade journal summary:\n\n"

// truncateReply caps a reply at the Discord limit, marking the cut with an
// ellipsis. Replies at or over the limit become exactly 2000 characters.
func truncateReply(reply string) string {
	if len(reply) >= maxMessageLen {
		return reply[:maxMessageLen-3] + "..."
	}
	return reply
}

// splitSummary packs the summary's lines into chunks that fit the Discord
// limit: lines accumulate greedily until adding one would overflow, then a
// new chunk starts. The first chunk carries the summary header. Order and
// content are preserved.
func splitSummary(summary string) []string {
	var chunks []string
	current := summaryHeader
	for _, line := range strings.Split(summary, "\n") {
		if len(current)+len(line)+1 > maxMessageLen {
			chunks = append(chunks, current)
			current = line + "\n"
		} else {
			current += line + "\n"
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
