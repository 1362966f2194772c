// Package transcript splits a free-form interview transcript into the HR and
// candidate speech streams.
package transcript

import (
	"regexp"
	"strings"
)

// Role identifies who spoke an utterance.
type Role string

const (
	RoleHR        Role = "hr"
	RoleCandidate Role = "candidate"
)

var (
	hrPrefix        = regexp.MustCompile(`(?i)^(HR|Interviewer|Recruiter):\s*`)
	candidatePrefix = regexp.MustCompile(`(?i)^(Candidate|Interviewee|Student):\s*`)
	// speakerMarker is used when the line scan finds nothing, to cut
	// single-line transcripts such as "HR: ... Candidate: ..." apart.
	speakerMarker = regexp.MustCompile(`(?i)(HR|Interviewer|Recruiter|Candidate|Interviewee|Student):`)
)

// Stream is the ordered speech of one role.
type Stream struct {
	Role       Role
	Utterances []string
}

// Text joins the utterances with single spaces.
func (s Stream) Text() string {
	return strings.TrimSpace(strings.Join(s.Utterances, " "))
}

// Streams holds both sides of one interview.
type Streams struct {
	HR        Stream
	Candidate Stream
}

// Segment returns the HR and candidate text of a transcript. It never fails;
// blank input yields two empty strings.
func Segment(transcript string) (string, string) {
	s := Split(transcript)
	return s.HR.Text(), s.Candidate.Text()
}

// Split attributes every non-blank line of the transcript to a role.
//
// A "Role:" prefix switches the active speaker; unprefixed lines continue
// the active speaker. Lines seen before any prefix belong to the candidate.
func Split(transcript string) Streams {
	streams := Streams{
		HR:        Stream{Role: RoleHR},
		Candidate: Stream{Role: RoleCandidate},
	}

	var current *Stream
	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case hrPrefix.MatchString(line):
			current = &streams.HR
			line = hrPrefix.ReplaceAllString(line, "")
		case candidatePrefix.MatchString(line):
			current = &streams.Candidate
			line = candidatePrefix.ReplaceAllString(line, "")
		case current == nil:
			streams.Candidate.Utterances = append(streams.Candidate.Utterances, line)
			continue
		}

		current.Utterances = append(current.Utterances, line)
	}

	if streams.HR.Text() == "" && streams.Candidate.Text() == "" {
		return splitByMarkers(transcript)
	}

	return streams
}

// splitByMarkers treats every speaker marker as a delimiter regardless of
// line structure. Text before the first marker is dropped.
func splitByMarkers(transcript string) Streams {
	streams := Streams{
		HR:        Stream{Role: RoleHR},
		Candidate: Stream{Role: RoleCandidate},
	}

	matches := speakerMarker.FindAllStringSubmatchIndex(transcript, -1)
	for i, m := range matches {
		end := len(transcript)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		text := strings.TrimSpace(transcript[m[1]:end])
		if text == "" {
			continue
		}

		if roleOf(transcript[m[2]:m[3]]) == RoleHR {
			streams.HR.Utterances = append(streams.HR.Utterances, text)
		} else {
			streams.Candidate.Utterances = append(streams.Candidate.Utterances, text)
		}
	}

	return streams
}

func roleOf(marker string) Role {
	switch strings.ToLower(marker) {
	case "hr", "interviewer", "recruiter":
		return RoleHR
	default:
		return RoleCandidate
	}
}
