package api

// BlockEntry is one row of the block index.
type BlockEntry struct {
	Index        int    `json:"index"`
	Path         string `json:"path"`
	HeaderOffset int64  `json:"header_offset"`
	DataOffset   int64  `json:"data_offset"`
	Telescope    string `json:"telescope"`
	Variant      string `json:"variant"`
	NBits        int    `json:"nbits"`
	BlockShape   [4]int `json:"blockshape"`
	BlockSize    int    `json:"blocksize"`
	DirectIO     bool   `json:"directio"`
	PktIdx       *int64 `json:"pktidx,omitempty"`
}

type BlockList struct {
	Object string       `json:"object"`
	Data   []BlockEntry `json:"data"`
	Total  int          `json:"total"`
}

type FileInfo struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

type StreamInfo struct {
	Object     string     `json:"object"`
	Stem       string     `json:"stem"`
	Files      []FileInfo `json:"files"`
	Blocks     int        `json:"blocks"`
	Telescope  string     `json:"telescope,omitempty"`
	NBits      int        `json:"nbits,omitempty"`
	BlockShape [4]int     `json:"blockshape"`
	Antennas   []string   `json:"antennas,omitempty"`
}

type HeaderCard struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

type HeaderResponse struct {
	Object string       `json:"object"`
	Index  int          `json:"index"`
	Cards  []HeaderCard `json:"cards"`
}

type PolarizationStats struct {
	MeanRe float64 `json:"mean_re"`
	MeanIm float64 `json:"mean_im"`
	RMS    float64 `json:"rms"`
	Peak   float64 `json:"peak"`
}

type BlockStats struct {
	Object        string              `json:"object"`
	Index         int                 `json:"index"`
	BlockShape    [4]int              `json:"blockshape"`
	Samples       int                 `json:"samples"`
	Polarizations []PolarizationStats `json:"polarizations"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
