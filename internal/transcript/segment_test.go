package transcript

import (
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSegment(t *testing.T) {
	Convey("Given transcripts without usable content", t, func() {
		Convey("Then empty and blank input yield empty streams", func() {
			for _, input := range []string{"", "   ", "\n\n\t\n", "HR:\nCandidate:", "Interviewer:   \n"} {
				hr, candidate := Segment(input)
				So(hr, ShouldBeEmpty)
				So(candidate, ShouldBeEmpty)
			}
		})
	})

	Convey("Given a line-by-line transcript", t, func() {
		input := strings.Join([]string{
			"HR: Tell me about yourself.",
			"Candidate: I am a backend engineer.",
			"I mostly write Go.",
			"",
			"Interviewer: Why this role?",
			"interviewee: Growth.",
			"RECRUITER: Thanks.",
		}, "\n")

		hr, candidate := Segment(input)

		Convey("Then prefixed lines go to their speaker in order", func() {
			So(hr, ShouldEqual, "Tell me about yourself. Why this role? Thanks.")
			So(candidate, ShouldEqual, "I am a backend engineer. I mostly write Go. Growth.")
		})

		Convey("And no HR line leaks into the candidate stream", func() {
			So(candidate, ShouldNotContainSubstring, "Tell me about yourself.")
			So(candidate, ShouldNotContainSubstring, "Why this role?")
		})
	})

	Convey("Given lines that precede any speaker prefix", t, func() {
		hr, candidate := Segment("Good morning\nHR: Shall we start?\nsure, go ahead")

		Convey("Then they default to the candidate stream", func() {
			So(candidate, ShouldEqual, "Good morning")
		})

		Convey("And later unprefixed lines continue the active speaker", func() {
			So(hr, ShouldEqual, "Shall we start? sure, go ahead")
		})
	})

	Convey("Given a transcript with no markers at all", t, func() {
		hr, candidate := Segment("just some text")

		Convey("Then everything is attributed to the candidate", func() {
			So(hr, ShouldBeEmpty)
			So(candidate, ShouldEqual, "just some text")
		})
	})

	Convey("Given a single line with inline markers", t, func() {
		hr, candidate := Segment("HR: Tell me about yourself. Candidate: I am an engineer.")

		Convey("Then the leading prefix owns the whole line", func() {
			So(hr, ShouldEqual, "Tell me about yourself. Candidate: I am an engineer.")
			So(candidate, ShouldBeEmpty)
		})
	})
}

func TestSplitByMarkers(t *testing.T) {
	Convey("Given an interleaved transcript without line structure", t, func() {
		streams := splitByMarkers("preamble HR: q1 Candidate: a1 interviewer: q2 Student: a2")

		Convey("Then text after each marker lands in the matching stream", func() {
			So(streams.HR.Utterances, ShouldResemble, []string{"q1", "q2"})
			So(streams.Candidate.Utterances, ShouldResemble, []string{"a1", "a2"})
		})

		Convey("And text before the first marker is dropped", func() {
			So(streams.HR.Text()+streams.Candidate.Text(), ShouldNotContainSubstring, "preamble")
		})
	})

	Convey("Given text without markers", t, func() {
		streams := splitByMarkers("nothing to see")

		Convey("Then both streams are empty", func() {
			So(streams.HR.Text(), ShouldBeEmpty)
			So(streams.Candidate.Text(), ShouldBeEmpty)
		})
	})
}

func TestSplitKeepsRoles(t *testing.T) {
	streams := Split("HR: hi\nCandidate: hello")
	if streams.HR.Role != RoleHR || streams.Candidate.Role != RoleCandidate {
		t.Fatalf("unexpected roles: %q %q", streams.HR.Role, streams.Candidate.Role)
	}
	if len(streams.HR.Utterances) != 1 || len(streams.Candidate.Utterances) != 1 {
		t.Fatalf("unexpected utterances: %+v", streams)
	}
}
