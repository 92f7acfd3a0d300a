package prompt

import (
	"bytes"
	"encoding/json"
)

type example struct {
	user      string
	assistant string
}

// rawExamples are the few-shot pairs. Replies are compact here and indented at init.
var rawExamples = []struct {
	user  string
	reply string
}{
	{
		user: "Create a contact form with name, email, phone, and message. All fields are required.",
		reply: `{"schema":{"display":"form","title":"Contact Form","components":[
{"type":"textfield","key":"name","label":"Name","input":true,"placeholder":"Enter your full name","validate":{"required":true}},
{"type":"email","key":"email","label":"Email Address","input":true,"placeholder":"Enter your email","validate":{"required":true}},
{"type":"phoneNumber","key":"phone","label":"Phone Number","input":true,"placeholder":"Enter your phone number","validate":{"required":true}},
{"type":"textarea","key":"message","label":"Message","input":true,"rows":5,"placeholder":"Enter your message","validate":{"required":true}},
{"type":"button","key":"submit","label":"Submit","input":true,"action":"submit","theme":"primary"}
]},"css":null}`,
	},
	{
		user: "I need a registration form with username, email, password, confirm password, date of birth, and a checkbox to agree to terms",
		reply: `{"schema":{"display":"form","title":"Registration Form","components":[
{"type":"textfield","key":"username","label":"Username","input":true,"placeholder":"Choose a username","validate":{"required":true,"minLength":3,"maxLength":20}},
{"type":"email","key":"email","label":"Email Address","input":true,"placeholder":"Enter your email","validate":{"required":true}},
{"type":"password","key":"password","label":"Password","input":true,"placeholder":"Create a password","validate":{"required":true,"minLength":8}},
{"type":"password","key":"confirmPassword","label":"Confirm Password","input":true,"placeholder":"Re-enter your password","validate":{"required":true}},
{"type":"datetime","key":"dateOfBirth","label":"Date of Birth","input":true,"format":"yyyy-MM-dd","enableDate":true,"enableTime":false,"validate":{"required":true}},
{"type":"checkbox","key":"agreeToTerms","label":"I agree to the terms and conditions","input":true,"validate":{"required":true}},
{"type":"button","key":"submit","label":"Register","input":true,"action":"submit","theme":"primary"}
]},"css":null}`,
	},
	{
		user: "Create a survey form with a dropdown to select favorite color (Red, Blue, Green, Yellow) and a rating from 1 to 5",
		reply: `{"schema":{"display":"form","title":"Survey Form","components":[
{"type":"select","key":"favoriteColor","label":"What is your favorite color?","input":true,"placeholder":"Select a color","data":{"values":[{"label":"Red","value":"red"},{"label":"Blue","value":"blue"},{"label":"Green","value":"green"},{"label":"Yellow","value":"yellow"}]},"validate":{"required":true}},
{"type":"radio","key":"rating","label":"Rate your experience (1-5)","input":true,"values":[{"label":"1 - Poor","value":"1"},{"label":"2 - Fair","value":"2"},{"label":"3 - Good","value":"3"},{"label":"4 - Very Good","value":"4"},{"label":"5 - Excellent","value":"5"}],"validate":{"required":true}},
{"type":"button","key":"submit","label":"Submit Survey","input":true,"action":"submit","theme":"primary"}
]},"css":null}`,
	},
}

var fewShotExamples = mustIndentExamples()

func mustIndentExamples() []example {
	out := make([]example, 0, len(rawExamples))
	for _, r := range rawExamples {
		var buf bytes.Buffer
		if err := json.Indent(&buf, compact(r.reply), "", "  "); err != nil {
			panic("prompt: invalid few-shot example: " + err.Error())
		}
		out = append(out, example{user: r.user, assistant: buf.String()})
	}
	return out
}

func compact(s string) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		panic("prompt: invalid few-shot example: " + err.Error())
	}
	return buf.Bytes()
}
