package forward

// faceLabels maps the common small-face ids to their display names, used
// for transcript preview lines.
var faceLabels = map[int]string{
	0:   "惊讶",
	1:   "撇嘴",
	2:   "色",
	4:   "得意",
	5:   "流泪",
	8:   "睡",
	9:   "大哭",
	10:  "尴尬",
	12:  "调皮",
	13:  "呲牙",
	14:  "微笑",
	16:  "酷",
	21:  "可爱",
	23:  "傲慢",
	25:  "困",
	26:  "惊恐",
	27:  "流汗",
	28:  "憨笑",
	29:  "悠闲",
	30:  "奋斗",
	32:  "疑问",
	33:  "嘘",
	34:  "晕",
	38:  "敲打",
	39:  "再见",
	41:  "发抖",
	42:  "爱情",
	43:  "跳跳",
	49:  "拥抱",
	53:  "蛋糕",
	60:  "咖啡",
	63:  "玫瑰",
	66:  "爱心",
	74:  "太阳",
	75:  "月亮",
	76:  "赞",
	77:  "踩",
	78:  "握手",
	79:  "胜利",
	85:  "飞吻",
	89:  "西瓜",
	96:  "冷汗",
	97:  "擦汗",
	98:  "抠鼻",
	99:  "鼓掌",
	101: "坏笑",
	104: "哈欠",
	106: "委屈",
	109: "左亲亲",
	111: "可怜",
	116: "示爱",
	118: "抱拳",
	120: "拳头",
	122: "爱你",
	123: "NO",
	124: "OK",
	147: "棒棒糖",
	171: "茶",
	173: "泪奔",
	174: "无奈",
	175: "卖萌",
	176: "小纠结",
	179: "doge",
	181: "戳一戳",
	182: "笑哭",
	201: "点赞",
	212: "托腮",
	214: "啵啵",
	222: "抱抱",
	227: "拍手",
	262: "脑阔疼",
	264: "捂脸",
	265: "辣眼睛",
	266: "哦哟",
	267: "头秃",
	268: "问号脸",
	269: "暗中观察",
	270: "emm",
	271: "吃瓜",
	272: "呵呵哒",
	273: "我酸了",
	277: "汪汪",
	281: "无眼笑",
	282: "敬礼",
	284: "面无表情",
	285: "摸鱼",
	287: "哦",
	289: "睁眼",
	290: "敲开心",
	293: "摸锦鲤",
	294: "期待",
	297: "拜谢",
	299: "牛啊",
	305: "右亲亲",
	306: "牛气冲天",
	307: "喵喵",
	311: "打call",
	312: "变形",
	314: "仔细分析",
	317: "菜狗",
	318: "崇拜",
	319: "比心",
	320: "庆祝",
	322: "拒绝",
	324: "吃糖",
	326: "生气",
}

// facePreview renders a small face as its bracketed label.
func facePreview(index int) string {
	if label, ok := faceLabels[index]; ok {
		return "[" + label + "]"
	}
	return "[表情]"
}
