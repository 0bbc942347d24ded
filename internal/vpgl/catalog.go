package vpgl

import "github.com/seantiz/batchcam/internal/model"

var (
	pStr    = model.In(model.TypeString)
	pDouble = model.In(model.TypeDouble)
	pFloat  = model.In(model.TypeFloat)
	pInt    = model.In(model.TypeInt)
	pUint   = model.In(model.TypeUnsigned)
	pBool   = model.In(model.TypeBool)
	pCam    = model.In(model.TypeCamera)
	pLVCS   = model.In(model.TypeLVCS)
	pRNG    = model.In(model.TypeRNG)
	pInts   = model.In(model.TypeIntArray)

	// pCamIDs holds the database ids of cameras to triangulate from.
	pCamIDs  = model.Param{Type: model.TypeUnsignedArray, Refs: true}
	pOptLVCS = model.Param{Type: model.TypeLVCS, Optional: true}
)

func params(ps ...model.Param) []model.Param { return ps }

func types(ts ...model.Type) []model.Type { return ts }

func repeat[T any](x T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = x
	}
	return out
}

func concat[T any](parts ...[]T) []T {
	var out []T
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var (
	outCam    = types(model.TypeCamera)
	outFloat2 = repeat(model.TypeFloat, 2)
	outFloat3 = repeat(model.TypeFloat, 3)
)

// catalog lists every process the client invokes.
var catalog = []model.Signature{
	{Name: "vpglLoadPerspectiveCameraProcess", Inputs: params(pStr), Outputs: outCam},
	{Name: "vpglLoadAffineCameraProcess", Inputs: params(pStr), Outputs: outCam},
	{Name: "vpglLoadProjCameraProcess", Inputs: params(pStr), Outputs: outCam},
	{Name: "vpglCreatePerspectiveCameraProcess", Inputs: repeat(pDouble, 10), Outputs: outCam},
	{
		Name:    "vpglCreatePerspCameraFromKMLProcess",
		Inputs:  concat(params(pUint, pUint), repeat(pDouble, 8)),
		Outputs: outCam,
	},
	{
		Name:    "vpglLoadPerspCameraFromKMLFileProcess",
		Inputs:  params(pUint, pUint, pStr),
		Outputs: concat(outCam, repeat(model.TypeDouble, 3)),
	},
	{Name: "vpglResamplePerspectiveCameraProcess", Inputs: concat(params(pCam), repeat(pInt, 4)), Outputs: outCam},
	{Name: "vpglGetPerspectiveCamCenterProcess", Inputs: params(pCam), Outputs: outFloat3},
	{Name: "vpglLoadRationalCameraProcess", Inputs: params(pStr), Outputs: outCam},
	{Name: "vpglLoadRationalCameraNITFProcess", Inputs: params(pStr), Outputs: outCam},
	{Name: "vpglLoadLocalRationalCameraProcess", Inputs: params(pStr), Outputs: outCam},
	{Name: "vpglConvertLocalRationalToPerspectiveProcess", Inputs: params(pCam), Outputs: outCam},
	{Name: "vpglCreateLocalRationalCameraProcess", Inputs: params(pStr, pStr), Outputs: outCam},
	{Name: "vpglSaveRationalCameraProcess", Inputs: params(pCam, pStr)},
	{Name: "vpglSavePerspectiveCameraProcess", Inputs: params(pCam, pStr)},
	{Name: "vpglSavePerspectiveCameraVrmlProcess", Inputs: params(pCam, pStr, pFloat)},
	{Name: "vpglSavePerspectiveCamerasVrmlProcess", Inputs: params(pStr, pStr, pFloat)},
	{Name: "vpglConvertToGenericCameraProcess", Inputs: params(pCam, pUint, pUint, pUint), Outputs: outCam},
	{
		Name:    "vpglConvertToGenericCameraWithMarginProcess",
		Inputs:  params(pCam, pUint, pUint, pUint, pInt),
		Outputs: types(model.TypeCamera, model.TypeUnsigned, model.TypeUnsigned, model.TypeCamera),
	},
	{Name: "vpglGetBoundingBoxProcess", Inputs: params(pStr)},
	{Name: "vpglProjectProcess", Inputs: concat(params(pCam), repeat(pFloat, 3)), Outputs: outFloat2},
	{Name: "vpglGetViewDirectionAtPointProcess", Inputs: concat(params(pCam), repeat(pFloat, 3)), Outputs: outFloat2},
	{Name: "vpglGenerate3dPointFromDepthProcess", Inputs: concat(params(pCam), repeat(pFloat, 3)), Outputs: outFloat3},
	{Name: "vpglGenerate3dPointFromCamsProcess", Inputs: params(pCamIDs, pInts), Outputs: outFloat3},
	{
		Name:    "vpglConvertLocalRationalToGenericProcess",
		Inputs:  params(pCam, pUint, pUint, pFloat, pFloat, pUint),
		Outputs: outCam,
	},
	{Name: "vpglCorrectRationalCameraProcess", Inputs: params(pCam, pDouble, pDouble), Outputs: outCam},
	{Name: "vpglGetRationalCameraOffsetsProcess", Inputs: params(pCam), Outputs: repeat(model.TypeDouble, 2)},
	{Name: "vpglConvertToLocalCoordinatesProcess", Inputs: concat(params(pStr), repeat(pFloat, 3)), Outputs: outFloat3},
	{Name: "vpglConvertToLocalCoordinatesProcess2", Inputs: concat(params(pLVCS), repeat(pFloat, 3)), Outputs: outFloat3},
	{
		Name:    "vpglConvertLocalToGlobalCoordinatesProcess",
		Inputs:  concat(params(pLVCS), repeat(pFloat, 3)),
		Outputs: outFloat3,
	},
	{Name: "vpglCreateLVCSProcess", Inputs: concat(repeat(pFloat, 3), params(pStr)), Outputs: types(model.TypeLVCS)},
	{
		Name:    "vpglPerturbPerspCamOrientProcess",
		Inputs:  params(pCam, pFloat, pRNG),
		Outputs: types(model.TypeCamera, model.TypeFloat, model.TypeFloat),
	},
	{Name: "bvrmlWritePerspectiveCamProcess", Inputs: concat(params(pStr, pCam), repeat(pFloat, 5))},
	{Name: "vpglRotatePerspCamProcess", Inputs: params(pCam, pFloat, pFloat), Outputs: outCam},
	{Name: "vpglCreatePerspectiveCameraProcess2", Inputs: concat(params(pCam), repeat(pFloat, 3)), Outputs: outCam},
	{Name: "vpglCreatePerspectiveCameraProcess3", Inputs: concat(params(pCam), repeat(pFloat, 5)), Outputs: outCam},
	{Name: "vpglNITFFootprintProcess", Inputs: params(pStr, pStr)},
	{Name: "vpglGeoFootprintProcess", Inputs: params(pCam, pStr, pStr, pBool)},
	{
		Name:    "vpglLoadGeoCameraProcess",
		Inputs:  params(pStr, pOptLVCS, pInt, pUint),
		Outputs: outCam,
	},
	{Name: "vpglSaveGeoCameraTFWProcess", Inputs: params(pCam, pStr)},
	{Name: "vpglLoadGeoCameraProcess2", Inputs: params(pStr, pUint, pUint), Outputs: outCam},
	{Name: "vpglTranslateGeoCameraProcess", Inputs: params(pCam, pDouble, pDouble), Outputs: outCam},
	{
		Name:    "vpglConvertGeoCameraToGenericProcess",
		Inputs:  params(pCam, pInt, pInt, pDouble, pInt),
		Outputs: outCam,
	},
	{Name: "vpglSaveLVCSProcess", Inputs: concat(repeat(pFloat, 3), params(pStr))},
	{Name: "vpglGeoGlobalToImgProcess", Inputs: params(pCam, pDouble, pDouble), Outputs: repeat(model.TypeInt, 2)},
	{Name: "vpglExportCamerasToNvmProcess", Inputs: repeat(pStr, 3)},
}

// Catalog returns the signature of every process the client invokes.
func Catalog() []model.Signature {
	out := make([]model.Signature, len(catalog))
	for i, sig := range catalog {
		out[i] = model.Signature{
			Name:    sig.Name,
			Inputs:  append([]model.Param(nil), sig.Inputs...),
			Outputs: append([]model.Type(nil), sig.Outputs...),
		}
	}
	return out
}

// Lookup returns the signature of the named process.
func Lookup(name string) (model.Signature, bool) {
	for _, sig := range Catalog() {
		if sig.Name == name {
			return sig, true
		}
	}
	return model.Signature{}, false
}
