package types

// Constructors for kernel-native send elements. Media elements (pic, ptt,
// video) are built by the kernel upload routines instead, since their
// payloads depend on upload results.

func SendText(text string) Element {
	return Element{
		ElementType: ElementTypeText,
		ElementID:   "",
		TextElement: &TextElement{Content: text},
	}
}

func SendAt(atUID, atNtUID string, atType AtType, display string) Element {
	return Element{
		ElementType: ElementTypeText,
		ElementID:   "",
		TextElement: &TextElement{
			Content: display,
			AtType:  atType,
			AtUID:   atUID,
			AtNtUID: atNtUID,
		},
	}
}

func SendFace(faceIndex, faceType int) Element {
	return Element{
		ElementType: ElementTypeFace,
		ElementID:   "",
		FaceElement: &FaceElement{FaceIndex: faceIndex, FaceType: faceType},
	}
}

func SendReply(msgSeq, msgID, senderUID string) Element {
	return Element{
		ElementType: ElementTypeReply,
		ElementID:   "",
		ReplyElement: &ReplyElement{
			ReplayMsgSeq: msgSeq,
			SourceMsgID:  msgID,
			SenderUIDStr: senderUID,
		},
	}
}

func SendArk(jsonPayload string) Element {
	return Element{
		ElementType: ElementTypeArk,
		ElementID:   "",
		ArkElement:  &ArkElement{BytesData: jsonPayload},
	}
}
