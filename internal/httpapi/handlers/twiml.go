package handlers

import (
	"encoding/xml"
	"net/http"
)

// Minimal TwiML rendering for the voice webhooks. Only the verbs this
// service speaks are modeled; field order inside twimlResponse is the
// document order.

type twimlResponse struct {
	XMLName  xml.Name `xml:"Response"`
	Say      *twimlSay
	Gather   *twimlGather
	Redirect *twimlRedirect
	Hangup   *twimlHangup
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Say           *twimlSay
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// GatherSpeech speaks prompt inside a speech gather so the caller can talk
// over it, then redirects back to action if the gather times out silent.
func GatherSpeech(prompt, action string) []byte {
	return render(twimlResponse{
		Gather: &twimlGather{
			Input:         "speech",
			Action:        action,
			Method:        http.MethodPost,
			SpeechTimeout: "auto",
			Say:           &twimlSay{Text: prompt},
		},
		Redirect: &twimlRedirect{Method: http.MethodPost, URL: action},
	})
}

// SayHangup speaks a closing line and ends the call.
func SayHangup(line string) []byte {
	return render(twimlResponse{
		Say:    &twimlSay{Text: line},
		Hangup: &twimlHangup{},
	})
}

func render(doc twimlResponse) []byte {
	body, err := xml.Marshal(doc)
	if err != nil {
		// Built from static structs; a marshal failure is a bug.
		panic(err)
	}
	return append([]byte(xml.Header), body...)
}
