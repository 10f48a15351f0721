package deepgram

type deepgramVoice string

const (
	VoiceAsteriaEN deepgramVoice = "aura-asteria-en"
	VoiceLunaEN    deepgramVoice = "aura-luna-en"
	VoiceOrionEN   deepgramVoice = "aura-orion-en"
	VoiceArcasEN   deepgramVoice = "aura-arcas-en"
	VoiceAthenaEN  deepgramVoice = "aura-athena-en"
)

const defaultVoice = VoiceAsteriaEN

func GetAvailableVoices() []deepgramVoice {
	return []deepgramVoice{
		VoiceAsteriaEN,
		VoiceLunaEN,
		VoiceOrionEN,
		VoiceArcasEN,
		VoiceAthenaEN,
	}
}
