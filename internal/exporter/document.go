package exporter

// Employer 表头“Datos del empleador”中的一行
type Employer struct {
	Marked   bool   `toml:"marked" json:"marked"`
	Name     string `toml:"name" json:"name"`
	RUC      string `toml:"ruc" json:"ruc"`
	Address  string `toml:"address" json:"address"`
	Activity string `toml:"activity" json:"activity"`
}

// EmployerSlots 表头固定的企业行数
const EmployerSlots = 4

// Document 固定版式中与课程无关的内容
type Document struct {
	Title    string `toml:"title" json:"title"`
	FormCode string `toml:"form_code" json:"formCode"`
	Version  string `toml:"version" json:"version"`
	FormDate string `toml:"form_date" json:"formDate"`
	PageText string `toml:"page_text" json:"pageText"`

	ActivityLine string     `toml:"activity_line" json:"activityLine"`
	Employers    []Employer `toml:"employers" json:"employers"`

	RegistrarName      string `toml:"registrar_name" json:"registrarName"`
	RegistrarRole      string `toml:"registrar_role" json:"registrarRole"`
	RegistrarSignature string `toml:"registrar_signature" json:"registrarSignature"`

	// LogoPath 为空时不放置 logo
	LogoPath string `toml:"logo_path" json:"logoPath"`
	// SignaturesDir 签名图片目录，目录中找不到的文件会被跳过
	SignaturesDir    string `toml:"signatures_dir" json:"signaturesDir"`
	DefaultSignature string `toml:"default_signature" json:"defaultSignature"`
}

// DefaultDocument 现行表单 JV-GTH-F-111 第 4 版的内容
func DefaultDocument() Document {
	return Document{
		Title:        "FORMATO\n\nLISTA DE ASISTENCIA VIRTUAL",
		FormCode:     "JV-GTH-F-111",
		Version:      "4",
		FormDate:     "27/12/2022",
		PageText:     "Página 01",
		ActivityLine: "Inducción ( ) Capacitación (X) Entrenamiento ( ) Charla de 5 minutos ( )",
		Employers: []Employer{
			{Marked: true, Name: "J&V RESGUARDO SAC", RUC: "20100901481", Address: "AV. DEFENSORES DEL MORRO N°1620 - CHORRILLOS", Activity: "VIGILANCIA PRIVADA"},
			{Name: "J&V RESGUARDO SELVA SAC", RUC: "20493762789", Address: "JR. NAUTA 269 - IQUITOS", Activity: "VIGILANCIA PRIVADA"},
			{Name: "LIDERMAN SERVICIOS SAC", RUC: "20601355761", Address: "AV. DEFENSORES DEL MORRO N°1620 - CHORRILLOS", Activity: "ACTIVIDADES DE TRANSPORTE"},
			{Name: "J&V ALARMAS S.A.C.", RUC: "20303166573", Address: "AV. DEFENSORES DEL MORRO N°1620 - CHORRILLOS", Activity: "ACTIVIDAD DE INVESTIGACIÓN"},
		},
		RegistrarName:      "Cuaila Colque, Eliana",
		RegistrarRole:      "Coordinadora de Capacitación y Desarrollo",
		RegistrarSignature: "firma_eliana.png",
		DefaultSignature:   "firma_capacitador.png",
	}
}
