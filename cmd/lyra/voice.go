package main

import (
	"context"
	"fmt"
	"strings"

	lyra "github.com/lyra-assist/lyra-go/sdk"

	"github.com/lyra-assist/lyra-go/pkg/voice"
	"github.com/lyra-assist/lyra-go/pkg/voice/speech"
)

// voiceMode runs the voice screen as a typed REPL: each line is treated as
// one spoken turn, and the assistant's reply is synthesized over the
// streaming TTS endpoint. Commands: /mute, /retry, /end.
func (a *app) voiceMode(ctx context.Context) error {
	prefs, err := a.store.Preferences(ctx)
	if err != nil {
		return err
	}

	speechClient := speech.NewClient(a.cfg.SpeechBase(), func() string {
		return a.client.Auth.Session().AccessToken
	})

	session := voice.NewSession(voice.Config{})
	defer session.End("left voice mode")

	var synth *speech.StreamingSynthesizer
	if prefs.VoiceAutoplay {
		synth, err = speechClient.NewSynthesizer(ctx, speech.SynthesizeOptions{
			Rate:   prefs.VoiceRate,
			Pitch:  prefs.VoicePitch,
			Volume: prefs.VoiceVolume,
		})
		if err != nil {
			session.Fail(voice.ErrorKindConnection, "could not reach the speech service")
			a.printVoiceError(session)
			// Stay in voice mode; the user decides whether to retry.
		} else {
			if err := session.Attach(nil, synth); err != nil {
				return err
			}
			go drainAudio(synth)
		}
	}

	fmt.Println("Voice mode. Type a turn, or /mute, /retry, /end.")
	a.printStatus(session)

	for {
		line, err := a.prompt("voice> ")
		if err != nil {
			return err
		}
		switch line {
		case "":
			a.printStatus(session)
		case "/end":
			return nil
		case "/mute":
			session.ToggleMute()
			a.printStatus(session)
		case "/retry":
			if err := session.Retry(); err != nil {
				fmt.Println(errorText(err))
				continue
			}
			if prefs.VoiceAutoplay {
				synth, err = speechClient.NewSynthesizer(ctx, speech.SynthesizeOptions{
					Rate:   prefs.VoiceRate,
					Pitch:  prefs.VoicePitch,
					Volume: prefs.VoiceVolume,
				})
				if err != nil {
					session.Fail(voice.ErrorKindConnection, "could not reach the speech service")
					a.printVoiceError(session)
					continue
				}
				if err := session.Attach(nil, synth); err != nil {
					fmt.Println(errorText(err))
					continue
				}
				go drainAudio(synth)
			}
			a.printStatus(session)
		default:
			if strings.HasPrefix(line, "/") {
				fmt.Println("Unknown command:", line)
				continue
			}
			if err := a.voiceTurn(ctx, session, line); err != nil {
				fmt.Println("Voice turn failed:", errorText(err))
				a.printStatus(session)
			}
		}

		if session.State() == voice.StateTerminated {
			return nil
		}
	}
}

// voiceTurn drives one full turn through the state machine.
func (a *app) voiceTurn(ctx context.Context, session *voice.Session, utterance string) error {
	if st := session.State(); st.Suspended() {
		fmt.Println("Muted. /mute to resume.")
		return nil
	} else if st == voice.StateError {
		a.printVoiceError(session)
		return nil
	}

	if err := session.StartListening(); err != nil {
		return err
	}
	a.printStatus(session)
	if err := session.AddTranscript(utterance, true); err != nil {
		return err
	}

	transcript, err := session.CommitTranscript()
	if err != nil {
		return err
	}
	a.printStatus(session)

	resp, err := a.client.Chat.SendMessage(ctx, transcript, a.history)
	if err != nil {
		session.Fail(voice.ErrorKindConnection, "lost connection to the assistant")
		a.printVoiceError(session)
		return nil
	}
	a.history = append(a.history,
		lyra.Turn{Role: "user", Content: transcript},
		lyra.Turn{Role: "assistant", Content: resp.Response},
	)

	if err := session.BeginResponse(resp.Response); err != nil {
		a.printVoiceError(session)
		return nil
	}
	a.printStatus(session)
	fmt.Println(resp.Response)

	if err := session.FinishPlayback(); err != nil {
		return err
	}
	a.printStatus(session)
	return nil
}

// drainAudio consumes synthesized audio. Playback hardware is out of scope
// for the terminal front end; the chunks are discarded.
func drainAudio(synth *speech.StreamingSynthesizer) {
	for range synth.Audio() {
	}
}

func (a *app) printStatus(session *voice.Session) {
	st := session.State()
	status := voice.StatusFor(st)
	if st == voice.StateError {
		kind, _ := session.Err()
		status = voice.ErrorStatusFor(kind)
	}
	fmt.Printf("  [%s] %s\n", status.Orb, status.Text)
}

func (a *app) printVoiceError(session *voice.Session) {
	kind, message := session.Err()
	status := voice.ErrorStatusFor(kind)
	if message != "" {
		fmt.Printf("  [%s] %s: %s (/retry to try again)\n", status.Orb, status.Text, message)
	} else {
		fmt.Printf("  [%s] %s (/retry to try again)\n", status.Orb, status.Text)
	}
}
